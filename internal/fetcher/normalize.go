package fetcher

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/romangod6/spaceflight-reader/internal/models"
)

// decodeEnvelope returns the raw items of the "results" list. Anything other
// than a JSON object carrying a list under "results" is a ParseError.
func decodeEnvelope(op string, body []byte) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &ParseError{Op: op, Reason: "response is not a JSON object", Err: err}
	}

	raw, ok := envelope["results"]
	if !ok {
		return nil, &ParseError{Op: op, Reason: "missing results field"}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &ParseError{Op: op, Reason: "results is not a list"}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &ParseError{Op: op, Reason: "results is not a list", Err: err}
	}

	return items, nil
}

// normalizeAll converts raw items into articles, skipping items that are not
// objects or carry no usable id, and keeping the first of any duplicate ids.
func normalizeAll(items []json.RawMessage) (articles []models.Article, skipped int) {
	articles = make([]models.Article, 0, len(items))
	seen := make(map[int64]struct{}, len(items))

	for _, item := range items {
		article, ok := normalizeItem(item)
		if !ok {
			skipped++
			continue
		}
		if _, dup := seen[article.ID]; dup {
			skipped++
			continue
		}
		seen[article.ID] = struct{}{}
		articles = append(articles, article)
	}

	return articles, skipped
}

func normalizeItem(raw json.RawMessage) (models.Article, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return models.Article{}, false
	}

	id, ok := parseID(fields["id"])
	if !ok {
		return models.Article{}, false
	}

	return models.Article{
		ID:          id,
		Title:       strings.TrimSpace(stringField(fields, "title")),
		Summary:     plainText(stringField(fields, "summary")),
		ImageURL:    strings.TrimSpace(stringField(fields, "image_url")),
		NewsSite:    strings.TrimSpace(stringField(fields, "news_site")),
		URL:         strings.TrimSpace(stringField(fields, "url")),
		PublishedAt: strings.TrimSpace(stringField(fields, "published_at")),
		Featured:    boolField(fields, "featured"),
	}, true
}

func parseID(v any) (int64, bool) {
	switch id := v.(type) {
	case json.Number:
		n, err := id.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func stringField(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

func boolField(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

// voidElements never carry a closing tag.
var voidElements = map[string]bool{"br": true, "hr": true, "img": true, "wbr": true}

// plainText strips markup from upstream summaries. Anything that is not
// well-formed markup, such as "a<b and c>d" or a bare "&amp;", passes through
// trimmed but otherwise untouched.
func plainText(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.ContainsAny(trimmed, "<&") {
		return trimmed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil || !isMarkup(doc, trimmed) {
		return trimmed
	}

	doc.Find("script, style").Remove()

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// isMarkup reports whether the parsed body holds at least one element and
// every element is either void or closed somewhere in src. A stray "<" that
// the parser read as an open tag fails the second check.
func isMarkup(doc *goquery.Document, src string) bool {
	elements := doc.Find("body *")
	if elements.Length() == 0 {
		return false
	}

	lower := strings.ToLower(src)
	markup := true
	elements.EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name := sel.Nodes[0].Data
		if voidElements[name] || strings.Contains(lower, "</"+name) {
			return true
		}
		markup = false
		return false
	})
	return markup
}

// Package ranking scores articles against a keyword, drops the ones that do
// not match and orders the rest for display.
package ranking

import (
	"sort"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/romangod6/spaceflight-reader/internal/models"
)

// Composite scores.
const (
	ScoreNone    = 0
	ScoreSummary = 1
	ScoreTitle   = 2
)

// Ranked is an article with the match results that placed it.
type Ranked struct {
	models.Article
	TitleScore   int `json:"title_score"`
	SummaryScore int `json:"summary_score"`
	Score        int `json:"score"`
}

// Terms splits keyword on whitespace into lowercase, de-duplicated terms in
// first-seen order.
func Terms(keyword string) []string {
	fields := strings.Fields(strings.ToLower(keyword))
	if len(fields) == 0 {
		return nil
	}

	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// matcher answers "does any term occur in s", case-insensitively.
type matcher struct {
	ac *ahocorasick.Matcher
}

func newMatcher(terms []string) *matcher {
	return &matcher{ac: ahocorasick.NewStringMatcher(terms)}
}

func (m *matcher) matches(s string) bool {
	if s == "" {
		return false
	}
	return m.ac.Contains([]byte(strings.ToLower(s)))
}

// Score computes the title, summary and composite scores of one article.
func Score(a models.Article, terms []string) Ranked {
	if len(terms) == 0 {
		return Ranked{Article: a}
	}
	return score(a, newMatcher(terms))
}

func score(a models.Article, m *matcher) Ranked {
	r := Ranked{Article: a}
	if m.matches(a.Title) {
		r.TitleScore = 1
	}
	if m.matches(a.Summary) {
		r.SummaryScore = 1
	}

	switch {
	case r.TitleScore == 1:
		r.Score = ScoreTitle
	case r.SummaryScore == 1:
		r.Score = ScoreSummary
	default:
		r.Score = ScoreNone
	}
	return r
}

// Rank scores records against keyword. A blank keyword returns every record
// unscored in input order. Otherwise non-matching records are dropped and the
// rest are sorted by descending score, keeping input order among equals.
func Rank(records []models.Article, keyword string) []Ranked {
	terms := Terms(keyword)
	if len(terms) == 0 {
		ranked := make([]Ranked, len(records))
		for i, a := range records {
			ranked[i] = Ranked{Article: a}
		}
		return ranked
	}

	m := newMatcher(terms)
	ranked := make([]Ranked, 0, len(records))
	for _, a := range records {
		r := score(a, m)
		if r.Score == ScoreNone {
			continue
		}
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// RankAndFilter is Rank without the scores.
func RankAndFilter(records []models.Article, keyword string) []models.Article {
	return Articles(Rank(records, keyword))
}

// Articles strips the scores from ranked, keeping its order.
func Articles(ranked []Ranked) []models.Article {
	out := make([]models.Article, len(ranked))
	for i, r := range ranked {
		out[i] = r.Article
	}
	return out
}

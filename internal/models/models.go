package models

// Article is a normalized upstream news record. String fields are never
// absent: missing upstream values become "".
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	ImageURL    string `json:"image_url"`
	NewsSite    string `json:"news_site"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
	Featured    bool   `json:"featured"`
}

// DisplayArticle is an Article prepared for a list card or a detail page.
type DisplayArticle struct {
	Article
	DisplayDate string `json:"display_date"`
	CardSummary string `json:"card_summary"`
}

package models

type NewsSource struct {
	Name string `json:"name"`
}

// NewsArticle is one top story reshaped for the news page.
type NewsArticle struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	PublishedAt string     `json:"publishedAt"`
	Source      NewsSource `json:"source"`
}

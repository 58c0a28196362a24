package schema

// NewsArticleTable represents the 'news.article' table
type NewsArticleTable struct {
	Table       string
	ID          string
	Slug        string
	Title       string
	Summary     string
	Body        string
	Category    string
	AuthorID    string
	Status      string
	PublishedAt string
	ViewCount   string
	CreatedAt   string
	UpdatedAt   string
	DeletedAt   string
}

// NewsArticle is the schema definition for news.article
var NewsArticle = NewsArticleTable{
	Table:       "news.article",
	ID:          "id",
	Slug:        "slug",
	Title:       "title",
	Summary:     "summary",
	Body:        "body",
	Category:    "category",
	AuthorID:    "authorid",
	Status:      "status",
	PublishedAt: "publishedat",
	ViewCount:   "viewcount",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	DeletedAt:   "deletedat",
}

// Columns returns the column names repositories select and scan, in order.
// DeletedAt is a filter column only and is deliberately excluded.
func (t NewsArticleTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Title, t.Summary, t.Body, t.Category, t.AuthorID,
		t.Status, t.PublishedAt, t.ViewCount, t.CreatedAt, t.UpdatedAt,
	}
}

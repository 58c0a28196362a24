package schema

// DirectoryReviewTable represents the 'directory.review' table
type DirectoryReviewTable struct {
	Table       string
	ID          string
	BusinessID  string
	PrincipalID string
	Rating      string
	Body        string
	Status      string
	CreatedAt   string
	UpdatedAt   string
}

// DirectoryReview is the schema definition for directory.review
var DirectoryReview = DirectoryReviewTable{
	Table:       "directory.review",
	ID:          "id",
	BusinessID:  "businessid",
	PrincipalID: "principalid",
	Rating:      "rating",
	Body:        "body",
	Status:      "status",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t DirectoryReviewTable) Columns() []string {
	return []string{
		t.ID, t.BusinessID, t.PrincipalID, t.Rating, t.Body, t.Status,
		t.CreatedAt, t.UpdatedAt,
	}
}

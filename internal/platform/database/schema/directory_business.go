package schema

// DirectoryBusinessTable represents the 'directory.business' table
type DirectoryBusinessTable struct {
	Table       string
	ID          string
	Slug        string
	Name        string
	Category    string
	City        string
	Phone       string
	Website     string
	OwnerID     string
	IsVerified  string
	RatingSum   string
	RatingCount string
	CreatedAt   string
	UpdatedAt   string
}

// DirectoryBusiness is the schema definition for directory.business
var DirectoryBusiness = DirectoryBusinessTable{
	Table:       "directory.business",
	ID:          "id",
	Slug:        "slug",
	Name:        "name",
	Category:    "category",
	City:        "city",
	Phone:       "phone",
	Website:     "website",
	OwnerID:     "ownerid",
	IsVerified:  "isverified",
	RatingSum:   "ratingsum",
	RatingCount: "ratingcount",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t DirectoryBusinessTable) Columns() []string {
	return []string{
		t.ID, t.Slug, t.Name, t.Category, t.City, t.Phone, t.Website,
		t.OwnerID, t.IsVerified, t.RatingSum, t.RatingCount,
		t.CreatedAt, t.UpdatedAt,
	}
}

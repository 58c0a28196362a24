package schema

// AdsCampaignTable represents the 'ads.campaign' table
type AdsCampaignTable struct {
	Table       string
	ID          string
	Name        string
	Placement   string
	ImageURL    string
	TargetURL   string
	Weight      string
	StartsAt    string
	EndsAt      string
	IsActive    string
	Impressions string
	Clicks      string
	CreatedAt   string
	UpdatedAt   string
}

// AdsCampaign is the schema definition for ads.campaign
var AdsCampaign = AdsCampaignTable{
	Table:       "ads.campaign",
	ID:          "id",
	Name:        "name",
	Placement:   "placement",
	ImageURL:    "imageurl",
	TargetURL:   "targeturl",
	Weight:      "weight",
	StartsAt:    "startsat",
	EndsAt:      "endsat",
	IsActive:    "isactive",
	Impressions: "impressions",
	Clicks:      "clicks",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t AdsCampaignTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Placement, t.ImageURL, t.TargetURL, t.Weight,
		t.StartsAt, t.EndsAt, t.IsActive, t.Impressions, t.Clicks,
		t.CreatedAt, t.UpdatedAt,
	}
}

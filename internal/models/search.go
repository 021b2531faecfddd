package models

// SearchFilter is the structured search input. Every field is optional; an
// empty field places no constraint on the result.
type SearchFilter struct {
	Query      string `json:"query" form:"q"`
	SetID      string `json:"set" form:"set"`
	Series     string `json:"series" form:"series"`
	Type       string `json:"type" form:"type"`
	Supertype  string `json:"supertype" form:"supertype"`
	Rarity     string `json:"rarity" form:"rarity"`
	Regulation string `json:"regulation" form:"regulation"`
	Artist     string `json:"artist" form:"artist"`
	Year       string `json:"year" form:"year"`
	Sort       string `json:"sort" form:"sort"`
}

// RegulationMarks lists the marks offered by the search form.
var RegulationMarks = []string{"D", "E", "F", "G", "H"}

// ReferenceData bundles the enumerations used to populate search filters.
type ReferenceData struct {
	Sets         []CardSet `json:"sets"`
	Series       []string  `json:"series"`
	Types        []string  `json:"types"`
	Rarities     []string  `json:"rarities"`
	Supertypes   []string  `json:"supertypes"`
	Regulations  []string  `json:"regulations"`
	FeaturedSets []CardSet `json:"featured_sets"`
}

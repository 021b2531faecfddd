package services

import (
	"testing"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    models.SearchFilter
		wantQuery string
	}{
		{
			name:      "empty filter",
			filter:    models.SearchFilter{},
			wantQuery: "",
		},
		{
			name:      "text only",
			filter:    models.SearchFilter{Query: "Pikachu"},
			wantQuery: `(name:*"Pikachu"* OR subtypes:*"Pikachu"* OR abilities.text:*"Pikachu"*)`,
		},
		{
			name:      "text and type",
			filter:    models.SearchFilter{Query: "Pikachu", Type: "Lightning"},
			wantQuery: `(name:*"Pikachu"* OR subtypes:*"Pikachu"* OR abilities.text:*"Pikachu"*) AND types:Lightning`,
		},
		{
			name:      "year and supertype",
			filter:    models.SearchFilter{Supertype: "Trainer", Year: "2023"},
			wantQuery: `supertype:"Trainer" AND set.releaseDate:[2023-01-01 TO 2023-12-31]`,
		},
		{
			name:      "non numeric year is dropped",
			filter:    models.SearchFilter{Rarity: "Rare Holo", Year: "twenty"},
			wantQuery: `rarity:"Rare Holo"`,
		},
		{
			name:      "year uses its numeric prefix",
			filter:    models.SearchFilter{Year: "2023abc"},
			wantQuery: `set.releaseDate:[2023-01-01 TO 2023-12-31]`,
		},
		{
			name:      "year range keeps the first year",
			filter:    models.SearchFilter{Year: " 2021-2022"},
			wantQuery: `set.releaseDate:[2021-01-01 TO 2021-12-31]`,
		},
		{
			name: "all fields in fixed order",
			filter: models.SearchFilter{
				Year:       "1999",
				Artist:     "Ken Sugimori",
				Regulation: "G",
				Rarity:     "Common",
				Supertype:  "Pokémon",
				Type:       "Fire",
				Series:     "Base",
				SetID:      "base1",
				Query:      "Charizard",
			},
			wantQuery: `(name:*"Charizard"* OR subtypes:*"Charizard"* OR abilities.text:*"Charizard"*)` +
				` AND set.id:base1 AND set.series:*"Base"* AND types:Fire AND supertype:"Pokémon"` +
				` AND rarity:"Common" AND regulationMark:G AND artist:*"Ken Sugimori"*` +
				` AND set.releaseDate:[1999-01-01 TO 1999-12-31]`,
		},
		{
			name:      "values are trimmed",
			filter:    models.SearchFilter{Query: "  Eevee  ", SetID: " sv1 "},
			wantQuery: `(name:*"Eevee"* OR subtypes:*"Eevee"* OR abilities.text:*"Eevee"*) AND set.id:sv1`,
		},
		{
			name:      "quotes are escaped",
			filter:    models.SearchFilter{Artist: `5ban "Graphics"`},
			wantQuery: `artist:*"5ban \"Graphics\""*`,
		},
		{
			name:      "whitespace only fields are ignored",
			filter:    models.SearchFilter{Query: "   ", Type: "\t"},
			wantQuery: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSearchQuery(tt.filter)
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if tt.wantQuery == "" {
				if _, ok := got.Params["q"]; ok {
					t.Errorf("empty filter should not set q, got %q", got.Params.Get("q"))
				}
			} else if got.Params.Get("q") != tt.wantQuery {
				t.Errorf("q param = %q, want %q", got.Params.Get("q"), tt.wantQuery)
			}
		})
	}
}

func TestBuildSearchQueryParams(t *testing.T) {
	got := BuildSearchQuery(models.SearchFilter{})
	if got.Params.Get("pageSize") != "48" {
		t.Errorf("pageSize = %q, want 48", got.Params.Get("pageSize"))
	}
	if got.Params.Get("orderBy") != "name" {
		t.Errorf("orderBy = %q, want name", got.Params.Get("orderBy"))
	}
	if got.CacheKey != "/cards?orderBy=name&pageSize=48" {
		t.Errorf("CacheKey = %q", got.CacheKey)
	}

	sorted := BuildSearchQuery(models.SearchFilter{Sort: "-set.releaseDate"})
	if sorted.Params.Get("orderBy") != "-set.releaseDate" {
		t.Errorf("orderBy = %q, want -set.releaseDate", sorted.Params.Get("orderBy"))
	}
	if sorted.CacheKey == got.CacheKey {
		t.Error("different sort orders must produce different cache keys")
	}
}

func TestBuildSearchQueryDeterministicKey(t *testing.T) {
	filter := models.SearchFilter{Query: "Mew", Rarity: "Rare"}
	a := BuildSearchQuery(filter)
	b := BuildSearchQuery(filter)
	if a.CacheKey != b.CacheKey {
		t.Errorf("cache keys differ: %q vs %q", a.CacheKey, b.CacheKey)
	}
}

func TestNameAndNumberQuery(t *testing.T) {
	name := NameQuery("Pikachu VMAX", 6)
	if name.Get("q") != `name:*"Pikachu VMAX"*` {
		t.Errorf("name q = %q", name.Get("q"))
	}
	if name.Get("pageSize") != "6" {
		t.Errorf("name pageSize = %q, want 6", name.Get("pageSize"))
	}

	number := NumberQuery("25", 10)
	if number.Get("q") != "number:25" {
		t.Errorf("number q = %q", number.Get("q"))
	}
	if number.Get("pageSize") != "10" {
		t.Errorf("number pageSize = %q, want 10", number.Get("pageSize"))
	}
}

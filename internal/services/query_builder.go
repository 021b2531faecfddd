package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

const (
	// DefaultPageSize is the number of cards requested per search.
	DefaultPageSize = 48
	// DefaultSortOrder is used when the filter does not name one.
	DefaultSortOrder = "name"
)

// leadingNumber matches the integer prefix of a year field such as "2021-2022".
var leadingNumber = regexp.MustCompile(`^[+-]?\d+`)

// SearchQuery is a ready-to-send /cards request.
type SearchQuery struct {
	// Query is the clause string sent as q; empty when the filter is empty.
	Query string
	// Params holds pageSize, orderBy and (when non-empty) q.
	Params url.Values
	// CacheKey identifies the request in the result cache.
	CacheKey string
}

// BuildSearchQuery translates a filter into the remote query language, one
// clause per non-empty field in a fixed order.
func BuildSearchQuery(filter models.SearchFilter) SearchQuery {
	return BuildSearchQueryWithPageSize(filter, DefaultPageSize)
}

// BuildSearchQueryWithPageSize is BuildSearchQuery with a configurable page size.
func BuildSearchQueryWithPageSize(filter models.SearchFilter, pageSize int) SearchQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var clauses []string
	if v := clean(filter.Query); v != "" {
		clauses = append(clauses, fmt.Sprintf(`(name:*"%s"* OR subtypes:*"%s"* OR abilities.text:*"%s"*)`, v, v, v))
	}
	if v := clean(filter.SetID); v != "" {
		clauses = append(clauses, "set.id:"+v)
	}
	if v := clean(filter.Series); v != "" {
		clauses = append(clauses, fmt.Sprintf(`set.series:*"%s"*`, v))
	}
	if v := clean(filter.Type); v != "" {
		clauses = append(clauses, "types:"+v)
	}
	if v := clean(filter.Supertype); v != "" {
		clauses = append(clauses, fmt.Sprintf(`supertype:"%s"`, v))
	}
	if v := clean(filter.Rarity); v != "" {
		clauses = append(clauses, fmt.Sprintf(`rarity:"%s"`, v))
	}
	if v := clean(filter.Regulation); v != "" {
		clauses = append(clauses, "regulationMark:"+v)
	}
	if v := clean(filter.Artist); v != "" {
		clauses = append(clauses, fmt.Sprintf(`artist:*"%s"*`, v))
	}
	if year, ok := leadingInt(filter.Year); ok {
		clauses = append(clauses, fmt.Sprintf("set.releaseDate:[%d-01-01 TO %d-12-31]", year, year))
	}

	sort := strings.TrimSpace(filter.Sort)
	if sort == "" {
		sort = DefaultSortOrder
	}

	params := url.Values{}
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("orderBy", sort)

	query := strings.Join(clauses, " AND ")
	if query != "" {
		params.Set("q", query)
	}

	return SearchQuery{
		Query:    query,
		Params:   params,
		CacheKey: "/cards?" + params.Encode(),
	}
}

// NameQuery builds the wildcard name lookup used by the OCR matcher.
func NameQuery(phrase string, pageSize int) url.Values {
	params := url.Values{}
	params.Set("q", fmt.Sprintf(`name:*"%s"*`, clean(phrase)))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return params
}

// NumberQuery builds the collector-number lookup used as the OCR fallback.
func NumberQuery(number string, pageSize int) url.Values {
	params := url.Values{}
	params.Set("q", "number:"+clean(number))
	params.Set("pageSize", strconv.Itoa(pageSize))
	return params
}

// clean trims a value and escapes embedded double quotes.
func clean(v string) string {
	return strings.ReplaceAll(strings.TrimSpace(v), `"`, `\"`)
}

// leadingInt parses the integer prefix of s, so "2023abc" reads as 2023.
func leadingInt(s string) (int, bool) {
	n, err := strconv.Atoi(leadingNumber.FindString(strings.TrimSpace(s)))
	return n, err == nil
}

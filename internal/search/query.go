package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders accepted by Params.SortBy.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortQuickest  = "quickest"
)

// Params configures a search.
type Params struct {
	UserID string // Required; results never cross users
	Query  string

	MaxTimeMinutes int // 0 means no limit

	Limit  int
	Offset int
	SortBy string

	Highlight bool
}

// DefaultParams returns the defaults for an interactive search.
func DefaultParams(userID, q string) Params {
	return Params{
		UserID:    userID,
		Query:     q,
		Limit:     20,
		SortBy:    SortRelevance,
		Highlight: true,
	}
}

// Result is one page of search hits.
type Result struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []Hit        `json:"hits"`
	Tags   []FacetCount `json:"tags,omitempty"`
}

// Hit is a matching recipe.
type Hit struct {
	RecipeID   int64             `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount is a tag and how many hits carry it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs params against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("search: user id is required")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)
	req.AddFacet("tags", bleve.NewFacetRequest("tags", 10))
	req.Fields = []string{"id", "title"}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
	}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with malformed id", "id", h.ID)
			continue
		}
		hit := Hit{RecipeID: id, Score: h.Score}
		if title, ok := h.Fields["title"].(string); ok {
			hit.Title = title
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}

	if facet, ok := res.Facets["tags"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Tags = append(result.Tags, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildQuery ANDs the owner restriction with the text and time filters.
func buildQuery(params Params) query.Query {
	owner := bleve.NewTermQuery(params.UserID)
	owner.SetField("user_id")
	queries := []query.Query{owner}

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		tagMatch := bleve.NewMatchQuery(q)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(2.0)

		ingredientMatch := bleve.NewMatchQuery(q)
		ingredientMatch.SetField("ingredients")
		ingredientMatch.SetBoost(2.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{titleMatch, tagMatch, ingredientMatch, descMatch, fuzzy}

		// Autocomplete
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.MaxTimeMinutes > 0 {
		lo, hi := 0.0, float64(params.MaxTimeMinutes)
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		rangeQuery.SetField("time_minutes")
		queries = append(queries, rangeQuery)
	}

	return bleve.NewConjunctionQuery(queries...)
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortRecent:
		req.SortBy([]string{"-updated_at"})
	case SortQuickest:
		req.SortBy([]string{"time_minutes", "-_score"})
	default:
		req.SortBy([]string{"-_score"})
	}
}

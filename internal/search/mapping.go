package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for recipe documents.
//
// Titles and descriptions use English stemming so "tomatoes" finds
// "tomato". Tag and ingredient names use the simple analyzer: they are
// short and users type them exactly. user_id and id are keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Not stored; can be long.
	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	tagsFieldMapping := bleve.NewTextFieldMapping()
	tagsFieldMapping.Analyzer = simple.Name
	tagsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsFieldMapping)

	ingredientsFieldMapping := bleve.NewTextFieldMapping()
	ingredientsFieldMapping.Analyzer = simple.Name
	ingredientsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("ingredients", ingredientsFieldMapping)

	userFieldMapping := bleve.NewTextFieldMapping()
	userFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("user_id", userFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	timeFieldMapping := bleve.NewNumericFieldMapping()
	timeFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("time_minutes", timeFieldMapping)

	updatedAtFieldMapping := bleve.NewNumericFieldMapping()
	updatedAtFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("updated_at", updatedAtFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

// Package article holds the generated encyclopedia article model and the
// providers that request it from a language model.
package article

import (
	_ "embed"
	"encoding/json"
	"strconv"
	"strings"
)

// Document is the structured article returned by the generation service.
type Document struct {
	Title               string    `json:"wikipedia_article_title"`
	Summary             string    `json:"wikipedia_article_initial_summary"`
	Sections            []Section `json:"wikipedia_article_sections"`
	InfoCard            InfoCard  `json:"info_card"`
	PotentialHyperlinks []string  `json:"potential_hyperlinks"`
}

// Section is one headed block of article body text.
type Section struct {
	Header  string `json:"header"`
	Content string `json:"content"`
}

// InfoCard is the "Quick Facts" side panel. Values are index-aligned with Categories.
type InfoCard struct {
	Categories []string `json:"categories"`
	Values     []string `json:"values"`
}

// InfoRow is a single category/value pair of an info card.
type InfoRow struct {
	Category string
	Value    string
}

// Rows pairs categories with their values. A category without a value gets "".
func (c InfoCard) Rows() []InfoRow {
	rows := make([]InfoRow, 0, len(c.Categories))
	for i, category := range c.Categories {
		row := InfoRow{Category: category}
		if i < len(c.Values) {
			row.Value = c.Values[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// Empty returns the zero view state: blank strings and empty, non-nil slices.
func Empty() Document {
	return Document{
		Sections:            []Section{},
		InfoCard:            InfoCard{Categories: []string{}, Values: []string{}},
		PotentialHyperlinks: []string{},
	}
}

// Validate reports the first field that makes d unusable as an article.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &SchemaValidationError{Field: "wikipedia_article_title", Reason: "empty"}
	}
	if strings.TrimSpace(d.Summary) == "" {
		return &SchemaValidationError{Field: "wikipedia_article_initial_summary", Reason: "empty"}
	}
	for i, s := range d.Sections {
		if strings.TrimSpace(s.Header) == "" {
			return &SchemaValidationError{Field: "wikipedia_article_sections", Reason: "section " + strconv.Itoa(i) + " has no header"}
		}
	}
	return nil
}

// normalize replaces nil slices so templates and JSON output see empty lists.
func (d *Document) normalize() {
	if d.Sections == nil {
		d.Sections = []Section{}
	}
	if d.InfoCard.Categories == nil {
		d.InfoCard.Categories = []string{}
	}
	if d.InfoCard.Values == nil {
		d.InfoCard.Values = []string{}
	}
	if d.PotentialHyperlinks == nil {
		d.PotentialHyperlinks = []string{}
	}
}

// Partial is a chunk of a document still being generated. A nil field was
// not present in the chunk.
type Partial struct {
	Title               *string    `json:"wikipedia_article_title,omitempty"`
	Summary             *string    `json:"wikipedia_article_initial_summary,omitempty"`
	Sections            *[]Section `json:"wikipedia_article_sections,omitempty"`
	InfoCard            *InfoCard  `json:"info_card,omitempty"`
	PotentialHyperlinks *[]string  `json:"potential_hyperlinks,omitempty"`
}

// Merge applies chunk to state shallowly: every top-level field present in
// chunk replaces the state's field, absent fields are kept.
func Merge(state Document, chunk Partial) Document {
	if chunk.Title != nil {
		state.Title = *chunk.Title
	}
	if chunk.Summary != nil {
		state.Summary = *chunk.Summary
	}
	if chunk.Sections != nil {
		state.Sections = *chunk.Sections
	}
	if chunk.InfoCard != nil {
		state.InfoCard = *chunk.InfoCard
	}
	if chunk.PotentialHyperlinks != nil {
		state.PotentialHyperlinks = *chunk.PotentialHyperlinks
	}
	state.normalize()
	return state
}

// PartialOf returns a chunk carrying every field of d.
func PartialOf(d Document) Partial {
	return Partial{
		Title:               &d.Title,
		Summary:             &d.Summary,
		Sections:            &d.Sections,
		InfoCard:            &d.InfoCard,
		PotentialHyperlinks: &d.PotentialHyperlinks,
	}
}

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON Schema describing Document, as sent to providers.
func Schema() map[string]any {
	var schema map[string]any
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		panic("article: embedded schema is invalid: " + err.Error())
	}
	return schema
}

// SchemaString returns the raw embedded JSON Schema.
func SchemaString() string {
	return string(schemaJSON)
}

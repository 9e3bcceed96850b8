// Package view models stored view templates: parsing them into component
// declarations, loading their definitions from a document store, and
// caching the parsed result.
package view

import (
	"strconv"
	"strings"

	"github.com/matthewbaird/tapestry/internal/inflect"
	"github.com/matthewbaird/tapestry/internal/vtl"
)

// Format selects how a component's entities are rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatList  Format = "list"
	FormatCards Format = "cards"
)

var knownFormats = []string{string(FormatTable), string(FormatList), string(FormatCards)}

// reserved attribute names that never become filters.
const (
	attrColumns      = "columns"
	attrFormat       = "format"
	attrRelationship = "relationship"
)

// Component is one named placeholder in a view template, standing for a set
// of related entities.
type Component struct {
	Name         string         `json:"name"`
	EntityType   string         `json:"entity_type"`
	Columns      []string       `json:"columns,omitempty"`
	Format       Format         `json:"format,omitempty"`
	Relationship string         `json:"relationship,omitempty"`
	Filters      map[string]any `json:"filters,omitempty"`
}

// Document is a parsed view: a stored template bound to an entity type,
// declaring zero or more components. Immutable once parsed.
type Document struct {
	ID         string      `json:"id"`
	EntityType string      `json:"entity_type"`
	Template   string      `json:"template"`
	Components []Component `json:"components"`
}

// ParseComponents extracts the component declarations from a template.
// Distinct names are deduplicated; the first occurrence's attributes win.
// Parsing is pure: the same template always yields the same components.
func ParseComponents(template string) ([]Component, error) {
	tmpl, errs := vtl.Parse(template)
	if len(errs) > 0 {
		return nil, errs[0]
	}

	var components []Component
	seen := make(map[string]bool)
	for _, tag := range tmpl.Tags() {
		if seen[tag.Name] {
			continue
		}
		seen[tag.Name] = true

		c, err := componentFromTag(tag)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	return components, nil
}

func componentFromTag(tag *vtl.TagNode) (Component, error) {
	c := Component{
		Name:       tag.Name,
		EntityType: inflect.Singularize(tag.Name),
	}

	for _, attr := range tag.Attrs {
		switch attr.Name {
		case attrColumns:
			c.Columns = parseColumns(attr.Value.Raw)

		case attrFormat:
			f := Format(attr.Value.Raw)
			if f != FormatTable && f != FormatList && f != FormatCards {
				return c, &vtl.ParseError{
					Message:    "unknown format " + strconv.Quote(attr.Value.Raw) + " on <" + tag.Name + ">",
					Pos:        attr.Pos,
					Suggestion: vtl.SuggestFrom(attr.Value.Raw, knownFormats, 2),
				}
			}
			c.Format = f

		case attrRelationship:
			c.Relationship = strings.ToLower(attr.Value.Raw)

		default:
			if c.Filters == nil {
				c.Filters = make(map[string]any)
			}
			c.Filters[attr.Name] = coerceValue(attr.Value)
		}
	}
	return c, nil
}

// parseColumns splits a bracketed, comma-separated list of quoted or bare
// tokens; quotes are stripped and blanks dropped.
func parseColumns(raw string) []string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	var cols []string
	for _, part := range strings.Split(s, ",") {
		col := strings.Trim(strings.TrimSpace(part), `"'`)
		if col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

// coerceValue applies best-effort typing to a filter value: literal
// true/false become bool, whole numbers become float64, everything else
// stays a string. Quoted values are always strings.
func coerceValue(v vtl.AttrValue) any {
	if v.Kind == vtl.ValueString {
		return v.Raw
	}
	switch v.Raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(v.Raw, 64); err == nil {
		return n
	}
	return v.Raw
}

package engine

import (
	"sort"
	"strings"

	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
)

// formatComponent renders a component's entities as markdown in the
// component's declared format, defaulting to a table.
func (e *Engine) formatComponent(comp view.Component, entities []graph.Entity) string {
	switch comp.Format {
	case view.FormatList:
		return e.formatList(comp, entities)
	case view.FormatCards:
		return e.formatCards(entities)
	default:
		return formatTable(comp, entities)
	}
}

// formatTable renders a markdown pipe table. Columns come from the
// component declaration, else the sorted union of entity field names; an
// id column always leads so edits remain addressable.
func formatTable(comp view.Component, entities []graph.Entity) string {
	columns := tableColumns(comp, entities)

	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" " + c + " |")
		}
		b.WriteString("\n")
	}

	writeRow(columns)
	sep := make([]string, len(columns))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(sep)

	for _, entity := range entities {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if col == "id" {
				cells[i] = escapeCell(entity.ID)
				continue
			}
			cells[i] = escapeCell(displayValue(entity.Fields[col]))
		}
		writeRow(cells)
	}
	return b.String()
}

func tableColumns(comp view.Component, entities []graph.Entity) []string {
	var columns []string
	if len(comp.Columns) > 0 {
		columns = comp.Columns
	} else {
		seen := make(map[string]bool)
		for _, entity := range entities {
			for field := range entity.Fields {
				seen[field] = true
			}
		}
		for field := range seen {
			columns = append(columns, field)
		}
		sort.Strings(columns)
	}

	for _, col := range columns {
		if col == "id" {
			return columns
		}
	}
	return append([]string{"id"}, columns...)
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// formatList renders one markdown bullet per entity, linking the display
// name to the entity's canonical URL.
func (e *Engine) formatList(comp view.Component, entities []graph.Entity) string {
	var b strings.Builder
	for _, entity := range entities {
		url := graph.CanonicalURL(e.origin, entityType(entity, comp), entity.ID)
		b.WriteString("- [" + displayName(entity) + "](" + url + ")\n")
	}
	return b.String()
}

// formatCards renders one heading block per entity with its fields as
// bullets. The id bullet leads so edits remain addressable.
func (e *Engine) formatCards(entities []graph.Entity) string {
	var b strings.Builder
	for _, entity := range entities {
		b.WriteString("### " + displayName(entity) + "\n\n")
		b.WriteString("- **id**: " + entity.ID + "\n")

		fields := make([]string, 0, len(entity.Fields))
		for field := range entity.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			b.WriteString("- **" + field + "**: " + displayValue(entity.Fields[field]) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func displayName(entity graph.Entity) string {
	for _, field := range []string{"name", "title"} {
		if v, ok := entity.Fields[field]; ok {
			if s := displayValue(v); s != "" {
				return s
			}
		}
	}
	return entity.ID
}

func entityType(entity graph.Entity, comp view.Component) string {
	if entity.Type != "" {
		return entity.Type
	}
	return comp.EntityType
}

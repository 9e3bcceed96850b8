package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/matthewbaird/tapestry/internal/graph"
	"github.com/matthewbaird/tapestry/internal/view"
	"github.com/matthewbaird/tapestry/internal/vtl"
)

// extract parses edited markdown back into per-component entity lists,
// using the original template as the extraction grammar: interpolated
// static text between tag spans anchors each component's region, and each
// region is parsed per the component's format. Repeated tags extract from
// the first region. refBlocks holds each component's reference-rendered
// block, used to separate adjacent components with no anchoring text
// between them.
func (e *Engine) extract(doc *view.Document, entity *graph.Entity, edited string, refBlocks map[string]string) (map[string][]graph.Entity, error) {
	tmpl, errs := vtl.Parse(doc.Template)
	if len(errs) > 0 {
		return nil, &view.MalformedViewError{ID: doc.ID, Err: errs[0]}
	}

	regions := componentRegions(tmpl, entity, edited, refBlocks)

	extracted := make(map[string][]graph.Entity, len(doc.Components))
	for _, comp := range doc.Components {
		region := regions[comp.Name]
		switch comp.Format {
		case view.FormatList:
			extracted[comp.Name] = parseListRegion(region)
		case view.FormatCards:
			extracted[comp.Name] = parseCardsRegion(region)
		default:
			extracted[comp.Name] = parseTableRegion(region)
		}
	}
	return extracted, nil
}

type pendingRegion struct {
	name  string
	start int
}

// componentRegions walks the template in source order against the edited
// text. Each text node's interpolated form is searched for as an anchor;
// a matched anchor closes every open tag region before it. Anchors that
// no longer appear in the edited text are skipped, so regions degrade to
// "until the next surviving anchor" and the format parsers ignore any
// trailing prose that leaks in. When several tags close on the same
// anchor (nothing but whitespace between them in the template), the
// shared span is partitioned with regionBoundary so each component reads
// only its own block.
func componentRegions(tmpl *vtl.Template, entity *graph.Entity, edited string, refBlocks map[string]string) map[string]string {
	regions := make(map[string]string)
	var open []pendingRegion
	cursor := 0

	closeOpen := func(end int) {
		for i := range open {
			p := open[i]
			segEnd := end
			if i+1 < len(open) {
				if boundary := regionBoundary(edited[p.start:end], refBlocks[p.name], refBlocks[open[i+1].name]); boundary >= 0 {
					segEnd = p.start + boundary
				}
				open[i+1].start = segEnd
			}
			if _, ok := regions[p.name]; !ok {
				regions[p.name] = edited[p.start:segEnd]
			}
		}
		open = open[:0]
	}

	for _, node := range tmpl.Nodes {
		switch n := node.(type) {
		case *vtl.TextNode:
			anchor := strings.TrimSpace(interpolate(n.Text, entity))
			if anchor == "" {
				continue
			}
			idx := strings.Index(edited[cursor:], anchor)
			if idx < 0 {
				continue
			}
			closeOpen(cursor + idx)
			cursor += idx + len(anchor)
		case *vtl.TagNode:
			if _, ok := regions[n.Name]; ok {
				continue
			}
			open = append(open, pendingRegion{name: n.Name, start: cursor})
		}
	}
	closeOpen(len(edited))
	return regions
}

// regionBoundary locates where the first of two adjacent component
// regions ends within span. An unedited neighbour's reference block is
// the strongest signal; failing that, the component's own unedited
// block; failing that, the start of a second pipe table.
func regionBoundary(span, block, nextBlock string) int {
	if nextBlock != "" {
		if i := strings.LastIndex(span, nextBlock); i >= 0 {
			return i
		}
	}
	if block != "" {
		if i := strings.Index(span, block); i >= 0 {
			return i + len(block)
		}
	}
	return secondTableStart(span)
}

// secondTableStart returns the offset of the second contiguous run of
// pipe lines in span, or -1 when there is at most one table.
func secondTableStart(span string) int {
	offset := 0
	seenTable := false
	inTable := false
	for _, line := range strings.SplitAfter(span, "\n") {
		pipe := strings.HasPrefix(strings.TrimSpace(line), "|")
		switch {
		case pipe && seenTable && !inTable:
			return offset
		case pipe:
			seenTable = true
			inTable = true
		default:
			inTable = false
		}
		offset += len(line)
	}
	return -1
}

// parseTableRegion reads a markdown pipe table: the first pipe line is the
// header, the separator is skipped, and each remaining pipe line becomes
// an entity. Rows without an id get one slugified from their first text
// cell, else a fresh uuid.
func parseTableRegion(region string) []graph.Entity {
	var header []string
	var entities []graph.Entity

	for _, line := range strings.Split(region, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "|") {
			continue
		}
		cells := splitRow(line)
		if header == nil {
			header = cells
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}

		entity := graph.Entity{Fields: make(map[string]any)}
		firstText := ""
		for i, cell := range cells {
			if i >= len(header) {
				break
			}
			if header[i] == "id" {
				entity.ID = cell
				continue
			}
			if firstText == "" && cell != "" {
				firstText = cell
			}
			entity.Fields[header[i]] = coerceCell(cell)
		}
		if entity.ID == "" {
			entity.ID = newEntityID(firstText)
		}
		entities = append(entities, entity)
	}
	return entities
}

func splitRow(line string) []string {
	trimmed := strings.Trim(line, "|")
	parts := strings.Split(trimmed, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.ReplaceAll(strings.TrimSpace(p), `\|`, "|")
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

var (
	listLinkItem  = regexp.MustCompile(`^[-*]\s+\[(.*?)\]\((.*?)\)\s*$`)
	listPlainItem = regexp.MustCompile(`^[-*]\s+(.+)$`)
	cardHeading   = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
	cardField     = regexp.MustCompile(`^-\s+\*\*(.+?)\*\*:\s?(.*)$`)
)

// parseListRegion reads markdown bullets. Linked items carry only an
// identity (the URL); a plain-text item is a new entity named by its text.
func parseListRegion(region string) []graph.Entity {
	var entities []graph.Entity
	for _, line := range strings.Split(region, "\n") {
		line = strings.TrimSpace(line)

		if m := listLinkItem.FindStringSubmatch(line); m != nil {
			_, id, err := graph.ParseURL(m[2])
			if err != nil {
				id = newEntityID(m[1])
			}
			entities = append(entities, graph.Entity{ID: id})
			continue
		}
		if m := listPlainItem.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(m[1])
			entities = append(entities, graph.Entity{
				ID:     newEntityID(text),
				Fields: map[string]any{"name": text},
			})
		}
	}
	return entities
}

// parseCardsRegion reads heading blocks with **field**: value bullets.
func parseCardsRegion(region string) []graph.Entity {
	var entities []graph.Entity
	var current *graph.Entity
	display := ""

	finish := func() {
		if current == nil {
			return
		}
		if current.ID == "" {
			current.ID = newEntityID(display)
			if display != "" {
				if _, ok := current.Fields["name"]; !ok {
					current.Fields["name"] = display
				}
			}
		}
		entities = append(entities, *current)
		current = nil
	}

	for _, line := range strings.Split(region, "\n") {
		line = strings.TrimSpace(line)

		if m := cardHeading.FindStringSubmatch(line); m != nil {
			finish()
			display = strings.TrimSpace(m[1])
			current = &graph.Entity{Fields: make(map[string]any)}
			continue
		}
		if current == nil {
			continue
		}
		if m := cardField.FindStringSubmatch(line); m != nil {
			field, value := m[1], m[2]
			if field == "id" {
				current.ID = strings.TrimSpace(value)
				continue
			}
			current.Fields[field] = coerceCell(value)
		}
	}
	finish()
	return entities
}

func coerceCell(cell string) any {
	switch cell {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(cell, 64); err == nil {
		return n
	}
	return cell
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// newEntityID slugifies the given text, falling back to a fresh uuid when
// nothing usable remains.
func newEntityID(text string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(text), "-"), "-")
	if slug == "" {
		return uuid.New().String()
	}
	return slug
}

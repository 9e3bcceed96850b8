package relate

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/matthewbaird/tapestry/internal/graph"
)

// LoadSchemaFile reads explicit relationship rules from a CUE file of the
// shape:
//
//	relationships: [
//		{context: "Post", component: "Tag", predicate: "tags", direction: "forward"},
//	]
//
// A missing file is not an error; the resolver falls back to the
// ownership heuristic alone.
func LoadSchemaFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading relationship schema %s: %w", path, err)
	}

	cuectx := cuecontext.New()
	val := cuectx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("compiling relationship schema %s: %w", path, err)
	}

	rels := val.LookupPath(cue.ParsePath("relationships"))
	if !rels.Exists() {
		return nil, nil
	}

	iter, err := rels.List()
	if err != nil {
		return nil, fmt.Errorf("relationships must be a list in %s: %w", path, err)
	}

	var rules []Rule
	for iter.Next() {
		item := iter.Value()
		rule := Rule{}
		if rule.Context, err = lookupString(item, "context"); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if rule.Component, err = lookupString(item, "component"); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if rule.Predicate, err = lookupString(item, "predicate"); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		dir, err := lookupString(item, "direction")
		if err != nil {
			dir = string(graph.DirectionForward)
		}
		switch graph.Direction(dir) {
		case graph.DirectionForward, graph.DirectionReverse:
			rule.Direction = graph.Direction(dir)
		default:
			return nil, fmt.Errorf("%s: invalid direction %q for %s/%s", path, dir, rule.Context, rule.Component)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func lookupString(v cue.Value, field string) (string, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() {
		return "", fmt.Errorf("relationship rule missing %q", field)
	}
	s, err := f.String()
	if err != nil {
		return "", fmt.Errorf("relationship rule field %q: %w", field, err)
	}
	return s, nil
}

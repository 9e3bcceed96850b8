package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// frontmatterPattern matches a YAML frontmatter block at the start of a
// view file: ---\n ... \n---\n
var frontmatterPattern = regexp.MustCompile(`(?s)\A---\s*\n(.*?)\n---\s*\n?`)

// frontmatter is the metadata block of a view file. Unknown fields are
// rejected so typos surface instead of being silently dropped.
type frontmatter struct {
	EntityType  string `yaml:"entity_type"`
	Description string `yaml:"description"`
}

// MalformedViewError reports a view definition that exists but cannot be
// read, distinct from a view that is simply absent.
type MalformedViewError struct {
	ID  string
	Err error
}

func (e *MalformedViewError) Error() string {
	return fmt.Sprintf("malformed view %s: %v", e.ID, e.Err)
}

func (e *MalformedViewError) Unwrap() error { return e.Err }

// FileStore reads view definitions from a directory of markdown files. A
// view for entity type Tag lives at <dir>/Tag.md and is addressable as
// "[Tag]". An optional frontmatter block can override the entity type.
type FileStore struct {
	dir string
	log *zap.Logger
}

func NewFileStore(dir string, log *zap.Logger) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{dir: dir, log: log}
}

func (s *FileStore) Get(_ context.Context, id string) (*Definition, error) {
	name, ok := TypeFromID(id)
	if !ok {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".md"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &MalformedViewError{ID: id, Err: err}
	}
	return s.parse(id, name, data)
}

func (s *FileStore) List(_ context.Context, filter Filter) ([]Definition, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading views dir %s: %w", s.dir, err)
	}

	var defs []Definition
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		id := IDFor(name)

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("skipping unreadable view file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		def, err := s.parse(id, name, data)
		if err != nil {
			s.log.Warn("skipping malformed view file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if filter.EntityType != "" && !strings.EqualFold(def.EntityType, filter.EntityType) {
			continue
		}
		defs = append(defs, *def)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// parse splits an optional frontmatter block from the template body. The
// entity type defaults to the file name and can be overridden by the
// entity_type frontmatter field.
func (s *FileStore) parse(id, name string, data []byte) (*Definition, error) {
	def := Definition{ID: id, EntityType: name}

	body := data
	if m := frontmatterPattern.FindSubmatch(data); m != nil {
		var fm frontmatter
		dec := yaml.NewDecoder(strings.NewReader(string(m[1])))
		dec.KnownFields(true)
		if err := dec.Decode(&fm); err != nil {
			return nil, &MalformedViewError{ID: id, Err: fmt.Errorf("frontmatter: %w", err)}
		}
		if fm.EntityType != "" {
			def.EntityType = fm.EntityType
		}
		body = data[len(m[0]):]
	}

	def.Template = string(body)
	return &def, nil
}

package vtl

// Node is the interface implemented by all template AST nodes. Spans are
// byte offsets into the source template, used by the renderer to splice
// component output over tag occurrences.
type Node interface {
	nodeType() string
	Span() (start, end int)
}

// TextNode is a literal run of template text.
type TextNode struct {
	Text  string
	Start int
	End   int
}

func (n *TextNode) nodeType() string { return "TextNode" }
func (n *TextNode) Span() (int, int) { return n.Start, n.End }

// ValueKind classifies an attribute value's textual shape.
type ValueKind int

const (
	ValueBare   ValueKind = iota // format=table
	ValueString                 // name="x"
	ValueBraced                 // columns={["title"]}
)

// AttrValue is the raw value of a tag attribute. For string and braced
// values, Raw holds the inner text without quotes or outer braces.
type AttrValue struct {
	Kind ValueKind
	Raw  string
}

// Attr is a single name/value pair on a component tag. A bare attribute
// with no '=' has the value "true".
type Attr struct {
	Name  string
	Value AttrValue
	Pos   int
}

// TagNode is a component tag, self-closing or block. For block tags Body
// holds the raw text between the opening and closing tags.
type TagNode struct {
	Name        string
	Attrs       []Attr
	Body        string
	SelfClosing bool
	Start       int
	End         int
}

func (n *TagNode) nodeType() string { return "TagNode" }
func (n *TagNode) Span() (int, int) { return n.Start, n.End }

// Attr returns the value of the named attribute and whether it was present.
func (n *TagNode) Attr(name string) (AttrValue, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return AttrValue{}, false
}

// Template is a parsed view template.
type Template struct {
	Source string
	Nodes  []Node
}

// Tags returns the template's component tags in source order.
func (t *Template) Tags() []*TagNode {
	var tags []*TagNode
	for _, n := range t.Nodes {
		if tag, ok := n.(*TagNode); ok {
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagsNamed returns every occurrence of the named tag in source order.
func (t *Template) TagsNamed(name string) []*TagNode {
	var tags []*TagNode
	for _, tag := range t.Tags() {
		if tag.Name == name {
			tags = append(tags, tag)
		}
	}
	return tags
}

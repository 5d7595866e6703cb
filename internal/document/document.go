// Package document implements the structured document model behind a
// memory's rich content: a tree of typed nodes exchanged as a single
// serialized string.
//
// The wire format is a depth-first JSON encoding of the tree:
//
//	{"type":"doc","content":[
//	  {"type":"heading","attrs":{"level":1},"content":[
//	    {"type":"text","text":"Our trip"}]},
//	  {"type":"paragraph","content":[
//	    {"type":"text","text":"was great","marks":[{"type":"bold"}]}]}]}
//
// The node set is closed: parsing rejects any node or mark type outside the
// set below, so a stored document can never smuggle an unrenderable shape
// past the parser. Round-trip law: Parse(Serialize(t)) deep-equals t for any
// tree built from recognized types.
package document

import (
	"encoding/json"
	"fmt"

	"github.com/mkaye/memorybox/internal/apperror"
)

// NodeType identifies one of the recognized node variants.
type NodeType string

const (
	TypeDoc            NodeType = "doc"
	TypeParagraph      NodeType = "paragraph"
	TypeHeading        NodeType = "heading"
	TypeBulletList     NodeType = "bulletList"
	TypeOrderedList    NodeType = "orderedList"
	TypeListItem       NodeType = "listItem"
	TypeText           NodeType = "text"
	TypeImage          NodeType = "image"
	TypeYouTube        NodeType = "youtube-embed"
	TypeHardBreak      NodeType = "hardBreak"
	TypeBlockquote     NodeType = "blockquote"
	TypeCodeBlock      NodeType = "codeBlock"
	TypeHorizontalRule NodeType = "horizontalRule"
)

// MarkType identifies one of the recognized inline marks.
type MarkType string

const (
	MarkBold   MarkType = "bold"
	MarkItalic MarkType = "italic"
	MarkLink   MarkType = "link"
)

// Mark is an inline style applied to a text node. Href is only meaningful
// for MarkLink.
type Mark struct {
	Type MarkType
	Href string
}

// Node is one node of the document tree. Exactly one shape applies per
// type: text nodes carry Text and Marks, container nodes carry Content,
// and the attribute fields (Level, Start, Src, Alt, Title) are only set for
// the types that define them. Unused fields stay zero and are omitted from
// the wire form.
type Node struct {
	Type NodeType

	Level int // heading: 1–3

	Start int // orderedList: first number, when not 1

	Src   string // image, youtube-embed
	Alt   string // image
	Title string // image

	Text  string // text
	Marks []Mark // text

	Content []*Node
}

// Empty returns the sentinel empty document. Missing content is represented
// by this value, never by nil or a JSON null.
func Empty() *Node {
	return &Node{Type: TypeDoc}
}

// EmptySerialized is the stored form of an empty document.
const EmptySerialized = `{"type":"doc"}`

// Parse decodes a serialized document. An empty or all-whitespace input is
// treated as "no content" and yields the empty document. Anything else must
// be a valid encoding of the closed node set; otherwise a ParseFailed error
// is returned and the caller is expected to contain it (render a placeholder,
// not crash the page).
func Parse(s string) (*Node, error) {
	if isBlank(s) {
		return Empty(), nil
	}

	var n Node
	if err := json.Unmarshal([]byte(s), &n); err != nil {
		return nil, apperror.ParseFailed(fmt.Sprintf("invalid document content: %v", err))
	}
	if n.Type != TypeDoc {
		return nil, apperror.ParseFailed(fmt.Sprintf("document root must be %q, got %q", TypeDoc, n.Type))
	}
	return &n, nil
}

// Serialize encodes a document tree for storage in a single field.
// A nil tree serializes to the empty-document sentinel.
func Serialize(n *Node) (string, error) {
	if n == nil {
		return EmptySerialized, nil
	}
	out, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("document: serializing: %w", err)
	}
	return string(out), nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

// wireNode is the JSON shape shared by all node types. Typed fields are
// folded into/out of the attrs object during (un)marshaling.
type wireNode struct {
	Type    NodeType       `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

type wireMark struct {
	Type  MarkType       `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		Type:    n.Type,
		Content: n.Content,
		Text:    n.Text,
		Marks:   n.Marks,
	}

	switch n.Type {
	case TypeHeading:
		w.Attrs = map[string]any{"level": n.Level}
	case TypeOrderedList:
		if n.Start > 0 {
			w.Attrs = map[string]any{"start": n.Start}
		}
	case TypeImage:
		attrs := map[string]any{"src": n.Src}
		if n.Alt != "" {
			attrs["alt"] = n.Alt
		}
		if n.Title != "" {
			attrs["title"] = n.Title
		}
		w.Attrs = attrs
	case TypeYouTube:
		w.Attrs = map[string]any{"src": n.Src}
	}

	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case TypeDoc, TypeParagraph, TypeBulletList, TypeListItem,
		TypeBlockquote, TypeCodeBlock, TypeHorizontalRule, TypeHardBreak:
		// no attributes

	case TypeText:
		if len(w.Content) > 0 {
			return fmt.Errorf("document: text node cannot have children")
		}

	case TypeHeading:
		level, ok := intAttr(w.Attrs, "level")
		if !ok || level < 1 || level > 3 {
			return fmt.Errorf("document: heading level must be 1-3")
		}
		n.Level = level

	case TypeOrderedList:
		if start, ok := intAttr(w.Attrs, "start"); ok {
			n.Start = start
		}

	case TypeImage:
		src, _ := stringAttr(w.Attrs, "src")
		if src == "" {
			return fmt.Errorf("document: image node requires a src attribute")
		}
		n.Src = src
		n.Alt, _ = stringAttr(w.Attrs, "alt")
		n.Title, _ = stringAttr(w.Attrs, "title")

	case TypeYouTube:
		src, _ := stringAttr(w.Attrs, "src")
		if src == "" {
			return fmt.Errorf("document: youtube-embed node requires a src attribute")
		}
		n.Src = src

	default:
		// Fail closed: an unrecognized tag is rejected here rather than
		// carried along for the renderer to trip over.
		return fmt.Errorf("document: unknown node type %q", w.Type)
	}

	n.Type = w.Type
	n.Text = w.Text
	n.Marks = w.Marks
	n.Content = w.Content
	return nil
}

func (m Mark) MarshalJSON() ([]byte, error) {
	w := wireMark{Type: m.Type}
	if m.Type == MarkLink {
		w.Attrs = map[string]any{"href": m.Href}
	}
	return json.Marshal(w)
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	var w wireMark
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	switch w.Type {
	case MarkBold, MarkItalic:
		// no attributes
	case MarkLink:
		href, _ := stringAttr(w.Attrs, "href")
		if href == "" {
			return fmt.Errorf("document: link mark requires an href attribute")
		}
		m.Href = href
	default:
		return fmt.Errorf("document: unknown mark type %q", w.Type)
	}

	m.Type = w.Type
	return nil
}

// intAttr reads an integer-valued attribute. JSON numbers arrive as
// float64; non-integral values are rejected.
func intAttr(attrs map[string]any, key string) (int, bool) {
	v, ok := attrs[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func stringAttr(attrs map[string]any, key string) (string, bool) {
	v, ok := attrs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

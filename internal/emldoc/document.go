// =============================================================================
// eml2csv - EML Document Loader
// =============================================================================
//
// This package loads EML election files with beevik/etree and exposes the
// result as a small, navigable element tree. Every other package reads the
// input documents exclusively through this tree and the accessor primitives
// in accessor.go.
//
// TREE SEMANTICS:
//   The tree mirrors the ElementTree model that EML tooling is usually
//   written against:
//   - Element names are matched on the resolved namespace URI, not on the
//     prefix the file happens to use
//   - Text is the character data before the first child element
//   - Children are kept in document order
//
// ENCODINGS:
//   The XML declaration may name any IANA character set (ISO-8859-1 and
//   windows-1252 exports are common); input is decoded to UTF-8 on load.
//
// HARDENING:
//   - Strict decoding: undefined entities are a parse error
//   - A DOCTYPE that declares entities is rejected outright
//   - Nesting deeper than MaxDepth is rejected
//
// =============================================================================

package emldoc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/ianaindex"
)

// =============================================================================
// NAMESPACES
// =============================================================================

// Namespace URIs used by EML-510b and EML-230b documents.
const (
	NamespaceEML = "urn:oasis:names:tc:evs:schema:eml"
	NamespaceDS  = "http://www.w3.org/2000/09/xmldsig#"
	NamespaceKR  = "http://www.kiesraad.nl/extensions"
	NamespaceXAL = "urn:oasis:names:tc:ciq:xsdschema:xAL:2.0"
	NamespaceXNL = "urn:oasis:names:tc:ciq:xsdschema:xNL:2.0"
)

// Namespaces maps the selector prefixes accepted by Compile to namespace URIs.
var Namespaces = map[string]string{
	"eml": NamespaceEML,
	"ds":  NamespaceDS,
	"kr":  NamespaceKR,
	"xal": NamespaceXAL,
	"xnl": NamespaceXNL,
}

// MaxDepth is the deepest element nesting the loader accepts.
const MaxDepth = 256

// =============================================================================
// TREE STRUCTURES
// =============================================================================

// Element is a single node of a parsed document.
type Element struct {
	node     *etree.Element
	doc      *Document
	space    string
	position int
	children []*Element
}

// Document is a parsed EML file.
type Document struct {
	// Source identifies where the document came from (usually its file path).
	// It is used in diagnostics only.
	Source string

	// Root is the document element. It is never nil for a parsed document.
	Root *Element

	tree     *etree.Document
	elements map[*etree.Element]*Element
}

// =============================================================================
// PARSE ERRORS
// =============================================================================

// ParseError reports input that is not well-formed XML or that the loader
// refuses to process.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errEntityDeclaration = errors.New("entity declarations are not allowed")
	errTooDeep           = fmt.Errorf("element nesting exceeds %d levels", MaxDepth)
	errNoRoot            = errors.New("document has no root element")
	errMultipleRoots     = errors.New("multiple root elements")
)

// =============================================================================
// LOADING
// =============================================================================

// ParseFile opens and parses the EML file at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Parse(f, path)
}

// Parse reads a complete XML document from r.
//
// PARAMETERS:
//   - r: The XML byte stream.
//   - source: A name for the stream used in error messages.
//
// RETURNS:
//   - The parsed document.
//   - A *ParseError if the stream is not acceptable XML.
func Parse(r io.Reader, source string) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charsetReader
	tree.ReadSettings.Permissive = false

	if _, err := tree.ReadFrom(r); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	for _, tok := range tree.Child {
		if d, ok := tok.(*etree.Directive); ok && declaresEntities(d.Data) {
			return nil, &ParseError{Source: source, Err: errEntityDeclaration}
		}
	}

	roots := tree.ChildElements()
	switch {
	case len(roots) == 0:
		return nil, &ParseError{Source: source, Err: errNoRoot}
	case len(roots) > 1:
		return nil, &ParseError{Source: source, Err: errMultipleRoots}
	}

	doc := &Document{
		Source:   source,
		tree:     tree,
		elements: make(map[*etree.Element]*Element),
	}
	root, err := doc.index(roots[0], 1)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	doc.Root = root

	return doc, nil
}

// charsetReader decodes documents whose XML declaration names a non UTF-8
// character set.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// index wraps node and its descendants in preorder. The namespace URI of
// each node is resolved before its prefix is rewritten to the well-known one,
// so selectors match regardless of the prefixes the file declares.
func (d *Document) index(node *etree.Element, depth int) (*Element, error) {
	if depth > MaxDepth {
		return nil, errTooDeep
	}

	el := &Element{
		node:     node,
		doc:      d,
		space:    node.NamespaceURI(),
		position: len(d.elements),
	}
	d.elements[node] = el

	for _, child := range node.ChildElements() {
		c, err := d.index(child, depth+1)
		if err != nil {
			return nil, err
		}
		el.children = append(el.children, c)
	}

	node.Space = prefixFor(el.space)

	return el, nil
}

// declaresEntities reports whether a <!...> directive is a DOCTYPE with an
// internal subset that declares entities.
func declaresEntities(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "DOCTYPE") && strings.Contains(s, "<!ENTITY")
}

// prefixFor returns the selector prefix for a namespace URI. Unknown
// namespaces keep their URI, which no selector prefix can match.
func prefixFor(uri string) string {
	for prefix, known := range Namespaces {
		if known == uri {
			return prefix
		}
	}
	return uri
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Find returns the first element matching p below the document root, or nil.
func (d *Document) Find(p *Path) *Element {
	if d == nil {
		return nil
	}
	return d.Root.Find(p)
}

// FindAll returns every element matching p below the document root.
func (d *Document) FindAll(p *Path) []*Element {
	if d == nil {
		return nil
	}
	return d.Root.FindAll(p)
}

// Space returns the namespace URI of the element.
func (e *Element) Space() string {
	if e == nil {
		return ""
	}
	return e.space
}

// Local returns the element name without its namespace.
func (e *Element) Local() string {
	if e == nil {
		return ""
	}
	return e.node.Tag
}

// Text returns the character data before the first child element.
func (e *Element) Text() string {
	if e == nil {
		return ""
	}
	return e.node.Text()
}

// Children returns the child elements in document order.
func (e *Element) Children() []*Element {
	if e == nil {
		return nil
	}
	return e.children
}

// Is reports whether the element has the given namespace and local name.
func (e *Element) Is(space, local string) bool {
	return e != nil && e.space == space && e.node.Tag == local
}

// QualifiedName renders the element name with its well-known prefix, for
// example "eml:ElectionName".
func (e *Element) QualifiedName() string {
	if e == nil {
		return ""
	}
	return qualify(e.space, e.node.Tag)
}

func qualify(space, local string) string {
	if space == "" {
		return local
	}
	if prefix := prefixFor(space); prefix != space {
		return prefix + ":" + local
	}
	return "{" + space + "}" + local
}

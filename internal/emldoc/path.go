package emldoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Path is a compiled element selector.
//
// The accepted syntax is the ElementTree subset used to address EML files:
//
//	./eml:Candidate                          child elements
//	.//eml:ElectionIdentifier                descendants at any depth
//	.//eml:TotalVotes/eml:Selection          descendants, then children
//	.//xnl:NameLine[@NameType='Initials']    with an attribute predicate
//
// Name prefixes must be keys of Namespaces. Evaluation is done by etree.
type Path struct {
	expr     string
	compiled etree.Path
}

// String returns the selector expression the path was compiled from.
func (p *Path) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// MustCompile is like Compile but panics if the expression cannot be parsed.
// It simplifies initialisation of package-level selectors.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Compile parses a selector expression.
func Compile(expr string) (*Path, error) {
	canonical, err := canonicalise(expr)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", expr, err)
	}

	compiled, err := etree.CompilePath(canonical)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", expr, err)
	}

	return &Path{expr: expr, compiled: compiled}, nil
}

// canonicalise checks expr against the accepted subset and rewrites it into
// the form etree expects: a leading "./", no blanks around "=" and single
// quoted predicate values.
func canonicalise(expr string) (string, error) {
	rest := strings.TrimPrefix(expr, ".")
	if rest == "" {
		return "", fmt.Errorf("selects nothing")
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}

	var b strings.Builder
	b.WriteString(".")
	descendant := false
	steps := 0
	for _, part := range strings.Split(rest, "/")[1:] {
		if part == "" {
			if descendant {
				return "", fmt.Errorf("empty step")
			}
			descendant = true
			b.WriteString("/")
			continue
		}
		s, err := canonicalStep(part)
		if err != nil {
			return "", err
		}
		descendant = false
		steps++
		b.WriteString("/")
		b.WriteString(s)
	}
	if descendant || steps == 0 {
		return "", fmt.Errorf("trailing separator")
	}

	return b.String(), nil
}

func canonicalStep(part string) (string, error) {
	name, predicate := part, ""
	if i := strings.IndexByte(part, '['); i >= 0 {
		if !strings.HasSuffix(part, "]") {
			return "", fmt.Errorf("unterminated predicate in %q", part)
		}
		name = part[:i]
		attr, value, err := parsePredicate(part[i+1 : len(part)-1])
		if err != nil {
			return "", err
		}
		predicate = "[@" + attr + "=" + quote(value) + "]"
	}

	local := name
	if prefix, l, found := strings.Cut(name, ":"); found {
		if _, ok := Namespaces[prefix]; !ok {
			return "", fmt.Errorf("unknown namespace prefix %q", prefix)
		}
		local = l
	}
	if local == "" || strings.ContainsAny(local, ":*@") {
		return "", fmt.Errorf("missing element name in %q", part)
	}

	return name + predicate, nil
}

// parsePredicate accepts "@Attr='value'" and "@Attr = \"value\"".
func parsePredicate(pred string) (string, string, error) {
	pred = strings.TrimSpace(pred)
	if !strings.HasPrefix(pred, "@") {
		return "", "", fmt.Errorf("unsupported predicate %q", pred)
	}
	attr, value, found := strings.Cut(pred[1:], "=")
	if !found {
		return "", "", fmt.Errorf("unsupported predicate %q", pred)
	}
	attr = strings.TrimSpace(attr)
	value = strings.TrimSpace(value)
	if attr == "" {
		return "", "", fmt.Errorf("unsupported predicate %q", pred)
	}
	if len(value) < 2 || (value[0] != '\'' && value[0] != '"') || value[len(value)-1] != value[0] {
		return "", "", fmt.Errorf("predicate value must be quoted in %q", pred)
	}
	value = value[1 : len(value)-1]
	if strings.ContainsAny(value, "'\"") {
		return "", "", fmt.Errorf("predicate value may not contain quotes in %q", pred)
	}
	return attr, value, nil
}

func quote(value string) string {
	return "'" + value + "'"
}

// =============================================================================
// EVALUATION
// =============================================================================

// Find returns the first element matching p, searching below e, or nil.
func (e *Element) Find(p *Path) *Element {
	matches := e.FindAll(p)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// FindAll returns every element matching p below e, in document order.
func (e *Element) FindAll(p *Path) []*Element {
	if e == nil || p == nil {
		return nil
	}

	nodes := e.node.FindElementsPath(p.compiled)
	matches := make([]*Element, 0, len(nodes))
	seen := make(map[*Element]bool, len(nodes))
	for _, node := range nodes {
		el, ok := e.doc.elements[node]
		if !ok || seen[el] {
			continue
		}
		seen[el] = true
		matches = append(matches, el)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].position < matches[j].position
	})
	return matches
}

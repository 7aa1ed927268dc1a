package emldoc

import (
	"errors"
	"fmt"
)

// =============================================================================
// MISSING FIELD ERRORS
// =============================================================================
// A required field can be absent in three ways. Each has its own error type so
// callers can tell them apart with errors.As, and each message names the
// element and field involved.

// MissingElementError reports that a required element could not be found.
type MissingElementError struct {
	// Path is the selector that matched nothing. It is empty when the caller
	// passed a nil element directly to one of the primitives.
	Path string

	// Within is the qualified name of the element the selector ran from.
	Within string
}

func (e *MissingElementError) Error() string {
	switch {
	case e.Path == "":
		return "could not find specified XML element"
	case e.Within == "":
		return fmt.Sprintf("could not find XML element %s", e.Path)
	default:
		return fmt.Sprintf("could not find XML element %s within %s", e.Path, e.Within)
	}
}

// MissingTextError reports that a required element exists but has no text.
type MissingTextError struct {
	Element string
}

func (e *MissingTextError) Error() string {
	return fmt.Sprintf("element %s did not have text but was mandatory", e.Element)
}

// MissingAttributeError reports that a required attribute is absent.
type MissingAttributeError struct {
	Element   string
	Attribute string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("element %s did not have attribute %s but was mandatory", e.Element, e.Attribute)
}

// =============================================================================
// PRIMITIVES
// =============================================================================

// Text returns the element text. The boolean is false when el is nil or has
// no text.
func Text(el *Element) (string, bool) {
	text := el.Text()
	if text == "" {
		return "", false
	}
	return text, true
}

// MandatoryText returns the element text or a *MissingElementError /
// *MissingTextError.
func MandatoryText(el *Element) (string, error) {
	if el == nil {
		return "", &MissingElementError{}
	}
	text, ok := Text(el)
	if !ok {
		return "", &MissingTextError{Element: el.QualifiedName()}
	}
	return text, nil
}

// Attr returns the value of an unqualified attribute.
func Attr(el *Element, name string) (string, bool) {
	if el == nil {
		return "", false
	}
	for _, a := range el.node.Attr {
		if a.Space == "" && a.Key == name {
			return a.Value, true
		}
	}
	return "", false
}

// MandatoryAttr returns the attribute value or a *MissingElementError /
// *MissingAttributeError.
func MandatoryAttr(el *Element, name string) (string, error) {
	if el == nil {
		return "", &MissingElementError{}
	}
	value, ok := Attr(el, name)
	if !ok {
		return "", &MissingAttributeError{Element: el.QualifiedName(), Attribute: name}
	}
	return value, nil
}

// =============================================================================
// SELECTOR FORMS
// =============================================================================

// TextAt returns the text of the first element matching p below e.
func (e *Element) TextAt(p *Path) (string, bool) {
	return Text(e.Find(p))
}

// MandatoryTextAt is MandatoryText applied to the first match of p below e.
func (e *Element) MandatoryTextAt(p *Path) (string, error) {
	text, err := MandatoryText(e.Find(p))
	return text, e.locate(err, p)
}

// AttrAt returns an attribute of the first element matching p below e.
func (e *Element) AttrAt(p *Path, name string) (string, bool) {
	return Attr(e.Find(p), name)
}

// MandatoryAttrAt is MandatoryAttr applied to the first match of p below e.
func (e *Element) MandatoryAttrAt(p *Path, name string) (string, error) {
	value, err := MandatoryAttr(e.Find(p), name)
	return value, e.locate(err, p)
}

// locate fills in the selector for a missing element so the message says
// what was looked for.
func (e *Element) locate(err error, p *Path) error {
	var missing *MissingElementError
	if errors.As(err, &missing) && missing.Path == "" {
		return &MissingElementError{Path: p.String(), Within: e.QualifiedName()}
	}
	return err
}

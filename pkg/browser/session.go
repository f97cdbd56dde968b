package browser

import (
	"context"
	"fmt"
)

// Session is a single logical browser tab. Calls must not overlap: a
// Session is driven by one goroutine at a time.
type Session interface {
	// SelectTab makes the tab whose title or URL matches namePattern current
	SelectTab(ctx context.Context, namePattern string) error
	// Navigate loads url and blocks until the page is ready
	Navigate(ctx context.Context, url string) error
	// EvaluateDomQuery evaluates expr on every element matching selector.
	// No matching element yields an empty slice and a nil error.
	EvaluateDomQuery(ctx context.Context, selector string, expr Expression) ([]string, error)
	// ClickElementByText activates the link whose visible text matches text
	ClickElementByText(ctx context.Context, text string) error
	// WaitForNavigation blocks until the navigation started by a click settles
	WaitForNavigation(ctx context.Context) error
}

// ExpressionKind selects what EvaluateDomQuery extracts from an element
type ExpressionKind int

const (
	// KindHref is the element's link target resolved against the page URL,
	// like the href property of an anchor in a browser
	KindHref ExpressionKind = iota
	// KindAttr is the raw value of a named attribute
	KindAttr
	// KindText is the element's text content with surrounding space trimmed
	KindText
)

// Expression describes the value extracted per matched element
type Expression struct {
	Kind ExpressionKind
	Name string
}

// Href extracts absolute link targets
func Href() Expression { return Expression{Kind: KindHref} }

// Attr extracts the raw value of attribute name, or "" when absent
func Attr(name string) Expression { return Expression{Kind: KindAttr, Name: name} }

// Text extracts trimmed text content
func Text() Expression { return Expression{Kind: KindText} }

func (e Expression) String() string {
	switch e.Kind {
	case KindHref:
		return "href"
	case KindAttr:
		return fmt.Sprintf("attr(%s)", e.Name)
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("expression(%d)", int(e.Kind))
	}
}

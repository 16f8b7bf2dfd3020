package types

import "fmt"

// SelectorKind is the query language of a Selector.
type SelectorKind string

const (
	SelectorCSS   SelectorKind = "css"
	SelectorXPath SelectorKind = "xpath"
)

// Selector locates elements on a rendered page.
type Selector struct {
	Kind SelectorKind `mapstructure:"kind" yaml:"kind"`
	Expr string       `mapstructure:"expr" yaml:"expr"`
}

// CSS returns a CSS selector.
func CSS(expr string) Selector { return Selector{Kind: SelectorCSS, Expr: expr} }

// XPath returns an XPath selector.
func XPath(expr string) Selector { return Selector{Kind: SelectorXPath, Expr: expr} }

// IsXPath reports whether the selector is an XPath expression. An empty kind means CSS.
func (s Selector) IsXPath() bool { return s.Kind == SelectorXPath }

// Validate checks that the selector has a known kind and a non-empty expression.
func (s Selector) Validate() error {
	if s.Expr == "" {
		return fmt.Errorf("selector expression is empty")
	}
	switch s.Kind {
	case "", SelectorCSS, SelectorXPath:
		return nil
	default:
		return fmt.Errorf("selector kind must be 'css' or 'xpath', got %q", s.Kind)
	}
}

func (s Selector) String() string {
	if s.Kind == "" {
		return string(SelectorCSS) + ":" + s.Expr
	}
	return string(s.Kind) + ":" + s.Expr
}

// Package extract evaluates declarative locators against parsed HTML pages
// and applies per-field extraction rules with optional post-processing.
package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
)

// Locator kinds.
const (
	KindXPath = "xpath"
	KindCSS   = "css"
)

var errUnknownKind = errors.New("unknown locator kind")

// Locator is a structural query over an HTML document. Kind defaults to
// "xpath"; XPath queries may select elements, text nodes or attributes and
// always yield their string value. CSS queries yield element text, or the
// named attribute when Attr is set.
type Locator struct {
	Kind  string `mapstructure:"kind" yaml:"kind"`
	Query string `mapstructure:"query" yaml:"query"`
	Attr  string `mapstructure:"attr" yaml:"attr"`
}

// IsZero reports whether the locator is unset. An unset locator disables the
// capability it would drive (e.g. no pagination).
func (l Locator) IsZero() bool {
	return l.Query == ""
}

// Validate checks the locator at configuration load time so that malformed
// expressions surface as config errors rather than silent no-matches.
func (l Locator) Validate() error {
	if l.IsZero() {
		return nil
	}
	switch l.Kind {
	case "", KindXPath:
		if _, err := xpath.Compile(l.Query); err != nil {
			return fmt.Errorf("invalid xpath %q: %w", l.Query, err)
		}
	case KindCSS:
		// goquery panics on invalid selectors at match time, so compile the
		// selector with cascadia up front.
		if _, err := cascadia.Compile(l.Query); err != nil {
			return fmt.Errorf("invalid css selector %q: %w", l.Query, err)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownKind, l.Kind)
	}
	return nil
}

// Select evaluates the locator and returns the string value of every match,
// in document order. Values are not trimmed; callers decide.
func (l Locator) Select(doc *html.Node) ([]string, error) {
	if l.IsZero() {
		return nil, nil
	}

	switch l.Kind {
	case "", KindXPath:
		nodes, err := htmlquery.QueryAll(doc, l.Query)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", l.Query, err)
		}
		values := make([]string, 0, len(nodes))
		for _, node := range nodes {
			values = append(values, htmlquery.InnerText(node))
		}
		return values, nil
	case KindCSS:
		gdoc := goquery.NewDocumentFromNode(doc)
		var values []string
		gdoc.Find(l.Query).Each(func(_ int, sel *goquery.Selection) {
			if l.Attr != "" {
				if attr, exists := sel.Attr(l.Attr); exists {
					values = append(values, attr)
				}
				return
			}
			values = append(values, sel.Text())
		})
		return values, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownKind, l.Kind)
	}
}

// First returns the string value of the first match, or false if the locator
// is unset or matched nothing.
func (l Locator) First(doc *html.Node) (string, bool, error) {
	values, err := l.Select(doc)
	if err != nil || len(values) == 0 {
		return "", false, err
	}
	return values[0], true, nil
}

// Child derives a locator that selects descendants of this locator's matches.
// Used for composite locators like "the link inside the next-page marker".
func (l Locator) Child(xpathSuffix, cssSuffix, cssAttr string) Locator {
	if l.Kind == KindCSS {
		return Locator{Kind: KindCSS, Query: l.Query + " " + cssSuffix, Attr: cssAttr}
	}
	return Locator{Kind: l.Kind, Query: l.Query + xpathSuffix}
}

// ParseHTML parses page content into a document suitable for locators.
func ParseHTML(content []byte) (*html.Node, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// Package page interprets fetched index pages through a site's locator set:
// is this a usable index page, which articles does it link to, where does its
// pagination stand, and where does it continue.
package page

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/sites"
)

// Analyzer evaluates a site's locator set against parsed index pages.
type Analyzer struct {
	locators sites.LocatorSet
	logger   logger.Interface
}

// NewAnalyzer creates an analyzer for one site's locators.
func NewAnalyzer(locators sites.LocatorSet, log logger.Interface) *Analyzer {
	return &Analyzer{locators: locators, logger: log}
}

// IsValidIndexPage reports whether the existence-check locator matches.
// An unset locator always qualifies the page.
func (a *Analyzer) IsValidIndexPage(doc *html.Node) bool {
	if a.locators.MustExist.IsZero() {
		return true
	}
	_, found, err := a.locators.MustExist.First(doc)
	if err != nil {
		a.logger.Warn("existence check failed", "error", err)
		return false
	}
	return found
}

// ArticleLinks returns the page's article link URLs resolved against base,
// in page order.
func (a *Analyzer) ArticleLinks(doc *html.Node, base *url.URL) []string {
	return a.resolveLinks(a.locators.ArticleLinks, doc, base)
}

// TopicLinks returns the page's topic listing URLs resolved against base.
// Only site-wide crawls configure this locator.
func (a *Analyzer) TopicLinks(doc *html.Node, base *url.URL) []string {
	return a.resolveLinks(a.locators.TopicLinks, doc, base)
}

// PageLimitExceeded reports whether the page's pagination marker carries a
// page number greater than maxPages. Without an active-page locator, or when
// the marker is absent, pagination is unbounded by page count. A marker
// without numeric text fails open: better to crawl one page too many than to
// silently stop a chain.
func (a *Analyzer) PageLimitExceeded(doc *html.Node, maxPages int) bool {
	if a.locators.ActivePage.IsZero() {
		return false
	}

	text, found, err := a.locators.ActivePage.First(doc)
	if err != nil {
		a.logger.Warn("active page lookup failed", "error", err)
		return false
	}
	if !found {
		return false
	}

	active, parseErr := strconv.Atoi(strings.TrimSpace(text))
	if parseErr != nil {
		a.logger.Warn("active page marker found but carries no page number", "text", text)
		return false
	}
	return active > maxPages
}

// NextPageURL resolves the link inside the next-page marker against base.
// Returns the empty string when pagination is unconfigured or exhausted.
func (a *Analyzer) NextPageURL(doc *html.Node, base *url.URL) string {
	if a.locators.NextPage.IsZero() {
		return ""
	}
	if _, found, err := a.locators.NextPage.First(doc); err != nil || !found {
		return ""
	}

	href, found, err := a.locators.NextPage.Child("//a/@href", "a", "href").First(doc)
	if err != nil || !found {
		return ""
	}
	return resolve(base, href)
}

func (a *Analyzer) resolveLinks(locator extract.Locator, doc *html.Node, base *url.URL) []string {
	hrefs, err := locator.Select(doc)
	if err != nil {
		a.logger.Warn("link extraction failed", "error", err)
		return nil
	}

	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		if resolved := resolve(base, strings.TrimSpace(href)); resolved != "" {
			links = append(links, resolved)
		}
	}
	return links
}

// resolve joins href against base, absolute hrefs passing through unchanged.
func resolve(base *url.URL, href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// Package sites holds per-publisher crawl configurations: seed URL templates,
// page locators, field extraction rules and blocklists. Configurations are
// loaded once at startup and never mutated.
package sites

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/jonesrussell/newscrawl/internal/extract"
)

// Crawler kinds. The kind selects which orchestrator a site is crawled with.
const (
	// KindArchive replays a site's dated archive pages.
	KindArchive = "archive"
	// KindSite walks topic listing pages discovered from the front page.
	KindSite = "site"
)

// Validation errors. All of them are fatal for the affected site only.
var (
	ErrMissingName         = errors.New("site name is required")
	ErrMissingBaseURL      = errors.New("base_url is required")
	ErrInvalidBaseURL      = errors.New("base_url must be a valid http(s) URL")
	ErrUnknownKind         = errors.New("unknown crawler kind")
	ErrMissingTemplates    = errors.New("archive sites require at least one seed_url_template")
	ErrMalformedTemplate   = errors.New("seed_url_template must contain {year}, {month} and {day}")
	ErrMissingArticleLinks = errors.New("article_links locator is required")
	ErrMissingTopicLinks   = errors.New("site-wide sites require a topic_links locator")
)

// LocatorSet names the structural locators used on index pages. Any locator
// may be left unset to disable the capability it drives.
type LocatorSet struct {
	// ArticleLinks selects the article link URLs on an index page.
	ArticleLinks extract.Locator `mapstructure:"article_links" yaml:"article_links"`
	// MustExist is the existence check that qualifies a page as an index page.
	MustExist extract.Locator `mapstructure:"must_exist" yaml:"must_exist"`
	// ActivePage selects the pagination marker carrying the current page number.
	ActivePage extract.Locator `mapstructure:"active_page" yaml:"active_page"`
	// NextPage selects the pagination element containing the next-page link.
	NextPage extract.Locator `mapstructure:"next_page" yaml:"next_page"`
	// TopicLinks selects topic listing URLs on the front page (site-wide kind).
	TopicLinks extract.Locator `mapstructure:"topic_links" yaml:"topic_links"`
}

// Config is one publisher's immutable crawl configuration.
type Config struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Kind    string `mapstructure:"kind" yaml:"kind"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// SeedURLTemplates carry {year}/{month}/{day} placeholders.
	SeedURLTemplates []string `mapstructure:"seed_url_templates" yaml:"seed_url_templates"`
	// CrawlParams are the opaque rendering-proxy options for index pages.
	CrawlParams map[string]string `mapstructure:"crawl_params" yaml:"crawl_params"`
	// ScrapeParams are the opaque rendering-proxy options for article pages.
	ScrapeParams map[string]string `mapstructure:"scrape_params" yaml:"scrape_params"`
	Locators     LocatorSet        `mapstructure:"locators" yaml:"locators"`
	// Fields maps article field names to their extraction rules.
	Fields map[string]extract.Rule `mapstructure:"fields" yaml:"fields"`
	// BlocklistURLs are exact article URLs that are never scraped.
	BlocklistURLs []string `mapstructure:"blocklist_urls" yaml:"blocklist_urls"`
	// BlocklistURLPatterns are regexes matched against candidate URLs.
	BlocklistURLPatterns []string `mapstructure:"blocklist_url_patterns" yaml:"blocklist_url_patterns"`
	// BackfillDateIfMissing stamps articles without an extracted date with the
	// seed chain's anchor date.
	BackfillDateIfMissing bool `mapstructure:"backfill_date_if_missing" yaml:"backfill_date_if_missing"`

	blockExact    map[string]struct{}
	blockPatterns []*regexp.Regexp
}

// Validate checks the configuration and compiles its blocklist patterns.
// A validation error disables the site; other sites are unaffected.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	if c.Kind == "" {
		c.Kind = KindArchive
	}
	switch c.Kind {
	case KindArchive:
		if len(c.SeedURLTemplates) == 0 {
			return ErrMissingTemplates
		}
		for _, template := range c.SeedURLTemplates {
			if err := validateTemplate(template); err != nil {
				return err
			}
		}
	case KindSite:
		if c.Locators.TopicLinks.IsZero() {
			return ErrMissingTopicLinks
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}

	if c.Locators.ArticleLinks.IsZero() {
		return ErrMissingArticleLinks
	}
	for _, locator := range []extract.Locator{
		c.Locators.ArticleLinks, c.Locators.MustExist, c.Locators.ActivePage,
		c.Locators.NextPage, c.Locators.TopicLinks,
	} {
		if err := locator.Validate(); err != nil {
			return err
		}
	}

	for field, rule := range c.Fields {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("field %q: %w", field, err)
		}
	}

	c.blockExact = make(map[string]struct{}, len(c.BlocklistURLs))
	for _, blocked := range c.BlocklistURLs {
		c.blockExact[blocked] = struct{}{}
	}
	c.blockPatterns = make([]*regexp.Regexp, 0, len(c.BlocklistURLPatterns))
	for _, pattern := range c.BlocklistURLPatterns {
		compiled, compileErr := regexp.Compile(pattern)
		if compileErr != nil {
			return fmt.Errorf("blocklist pattern %q: %w", pattern, compileErr)
		}
		c.blockPatterns = append(c.blockPatterns, compiled)
	}

	return nil
}

// ShouldScrape reports whether a candidate article URL passes the blocklists.
func (c *Config) ShouldScrape(articleURL string) bool {
	if _, blocked := c.blockExact[articleURL]; blocked {
		return false
	}
	for _, pattern := range c.blockPatterns {
		if pattern.MatchString(articleURL) {
			return false
		}
	}
	return true
}

func validateTemplate(template string) error {
	for _, placeholder := range []string{"{year}", "{month}", "{day}"} {
		if !strings.Contains(template, placeholder) {
			return fmt.Errorf("%w: %q", ErrMalformedTemplate, template)
		}
	}
	return nil
}

package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/jonesrussell/newscrawl/internal/dates"
	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/frontier"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/sites"
	"github.com/jonesrussell/newscrawl/internal/store"
)

// Conventional field names shared by every site's extraction rules. Fields
// outside this set are carried in the record's extra payload.
const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldRawDate     = "raw_date"
	fieldParsedDate  = "parsed_date"
	fieldParagraphs  = "paragraphs"
)

// ingester is the article-level half of a crawl, shared by the archive and
// site-wide orchestrators: filter a candidate link, fetch the article page,
// apply the site's extraction rules, persist the record.
type ingester struct {
	site    *sites.Config
	baseURL *url.URL
	fetcher Fetcher
	store   store.Store
	engine  *extract.Engine
	logger  logger.Interface
}

// eligible reports whether a candidate link should be considered at all:
// it must live under the site's base URL and pass the blocklists.
func (i *ingester) eligible(link string) bool {
	if !strings.HasPrefix(link, i.site.BaseURL) {
		return false
	}
	return i.site.ShouldScrape(link)
}

// alreadyIngested checks the dedup gate against the article store, using the
// normalized URL as the key. Called once per candidate immediately before
// fetching, to avoid wasted proxy calls.
func (i *ingester) alreadyIngested(ctx context.Context, link string) (bool, error) {
	key := link
	if normalized, err := frontier.NormalizeURL(link); err == nil {
		key = normalized
	}
	return i.store.ExistsByURL(ctx, key)
}

// scrapeArticle fetches one article page and applies every extraction rule.
// When the site backfills missing dates, the chain's anchor date stamps both
// the raw and parsed date fields. The returned time is the article's parsed
// date (possibly backfilled), zero when none is known.
func (i *ingester) scrapeArticle(
	ctx context.Context,
	link string,
	anchorDate time.Time,
) (*store.ArticleRecord, time.Time, error) {
	content, err := i.fetcher.Fetch(ctx, link, fetch.Params(i.site.ScrapeParams))
	if err != nil {
		return nil, time.Time{}, err
	}

	doc, err := extract.ParseHTML(content)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parse article page: %w", err)
	}

	fields := i.engine.Fields(doc, i.site.Fields)
	if i.site.BackfillDateIfMissing && !anchorDate.IsZero() {
		stamp := anchorDate.Format(dates.Canonical)
		if fields[fieldParsedDate] == nil {
			fields[fieldParsedDate] = stamp
		}
		if fields[fieldRawDate] == nil {
			fields[fieldRawDate] = stamp
		}
	}

	record, articleDate := i.buildRecord(link, fields)
	return record, articleDate, nil
}

// persist inserts the record. A duplicate URL means another run got there
// first; that is logged and swallowed, not an error.
func (i *ingester) persist(ctx context.Context, record *store.ArticleRecord) error {
	if normalized, err := frontier.NormalizeURL(record.URL); err == nil {
		record.URL = normalized
	}
	if err := i.store.Insert(ctx, record); err != nil {
		if errors.Is(err, store.ErrDuplicateURL) {
			i.logger.Info("article already inserted by a concurrent run", "url", record.URL)
			return nil
		}
		return err
	}
	return nil
}

// buildRecord maps extracted field values onto an article record. The second
// return value is the article's parsed calendar date, zero when absent.
func (i *ingester) buildRecord(link string, fields map[string]any) (*store.ArticleRecord, time.Time) {
	record := &store.ArticleRecord{
		URL:      link,
		SiteName: i.site.Name,
		Visited:  true,
	}

	var articleDate time.Time
	extra := make(map[string]any)
	for name, value := range fields {
		if value == nil {
			continue
		}
		switch name {
		case fieldTitle:
			record.Title = stringField(value)
		case fieldDescription:
			record.Description = stringField(value)
		case fieldRawDate:
			record.RawDate = stringField(value)
		case fieldParsedDate:
			if s := stringField(value); s != nil {
				if parsed, ok := dates.Parse(*s); ok {
					articleDate = parsed
					record.ParsedDate = &parsed
				}
			}
		case fieldParagraphs:
			if paragraphs, ok := value.([]string); ok {
				record.Paragraphs = pq.StringArray(paragraphs)
			} else if s := stringField(value); s != nil {
				record.Paragraphs = pq.StringArray{*s}
			}
		default:
			extra[name] = value
		}
	}

	if len(extra) > 0 {
		if payload, err := json.Marshal(extra); err == nil {
			record.Extra = payload
		}
	}
	return record, articleDate
}

// stringField coerces an extracted value to a string pointer; multi-match
// values collapse to a space-joined string.
func stringField(value any) *string {
	switch v := value.(type) {
	case string:
		return &v
	case []string:
		joined := strings.Join(v, " ")
		return &joined
	default:
		return nil
	}
}

package crawler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/net/html"

	"github.com/jonesrussell/newscrawl/internal/dates"
	"github.com/jonesrussell/newscrawl/internal/extract"
	"github.com/jonesrussell/newscrawl/internal/fetch"
	"github.com/jonesrussell/newscrawl/internal/frontier"
	"github.com/jonesrussell/newscrawl/internal/page"
	"github.com/jonesrussell/newscrawl/internal/seeds"
)

// Archive crawls a site's dated archive pages. Every seed day expands into a
// pagination chain; a chain ends when its pages run out, its pagination
// marker passes the page limit, or an article older than the run's start day
// shows up. The must-exist locator is not consulted here; seed URLs address
// dated index pages directly, so the existence check belongs to the site-wide
// kind only.
type Archive struct {
	ingester
	analyzer *page.Analyzer
}

// Run crawls the archive pages of a single day.
func (a *Archive) Run(ctx context.Context, date time.Time, pageLimit int) error {
	return a.RunBetween(ctx, date, date, pageLimit)
}

// RunBetween crawls every archive day in [start, end], newest day first.
func (a *Archive) RunBetween(ctx context.Context, start, end time.Time, pageLimit int) error {
	items := seeds.Generate(a.site.SeedURLTemplates, start, end)
	deque := frontier.NewDeque(items)
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	a.logger.Info("archive crawl starting",
		"start_date", startDay.Format(dates.Canonical),
		"seed_count", len(items),
		"page_limit", pageLimit,
	)

	var stats Stats
	for {
		item, ok := deque.PopFront()
		if !ok {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		doc, err := a.fetchIndexPage(ctx, item.URL)
		if err != nil {
			if isContextErr(err) {
				return err
			}
			a.logger.Error("index page unreachable, dropping chain", "url", item.URL, "error", err)
			stats.ChainsDropped++
			continue
		}
		stats.PagesCrawled++

		if a.analyzer.PageLimitExceeded(doc, pageLimit) {
			a.logger.Info("page limit reached, dropping chain", "url", item.URL, "page_limit", pageLimit)
			stats.ChainsDropped++
			continue
		}

		anchor := item.AnchorDate
		tooOld := false
		unreachable := false
		for _, link := range a.analyzer.ArticleLinks(doc, a.baseURL) {
			if err := ctx.Err(); err != nil {
				return err
			}
			articleDate, pastLimit, ingestErr := a.ingestArticle(ctx, link, anchor, startDay, &stats)
			if ingestErr != nil {
				if isContextErr(ingestErr) {
					return ingestErr
				}
				// A fetch that exhausted its retries ends the chain, same
				// as an unreachable index page. Store errors stay local to
				// the one article.
				var fetchErr *fetch.Error
				if errors.As(ingestErr, &fetchErr) {
					unreachable = true
					break
				}
				continue
			}
			if pastLimit {
				tooOld = true
				break
			}
			if !articleDate.IsZero() {
				anchor = articleDate
			}
		}

		if unreachable {
			a.logger.Error("article unreachable, dropping chain", "url", item.URL)
			stats.ChainsDropped++
			continue
		}

		// An article older than the run's window means the chain has walked
		// past its useful pages; following pagination would only find older
		// ones.
		if tooOld {
			a.logger.Info("chain reached articles older than the crawl window", "url", item.URL)
			continue
		}

		if next := a.analyzer.NextPageURL(doc, a.baseURL); next != "" {
			deque.PushFront(frontier.Item{AnchorDate: anchor, URL: next})
		}
	}

	a.logger.Info("archive crawl finished", stats.fields()...)
	return nil
}

// ingestArticle runs the dedup gate, scrape and persist for one candidate
// link. The returned date is the article's parsed date. An article dated
// before startDay reports pastLimit and is never persisted.
func (a *Archive) ingestArticle(
	ctx context.Context,
	link string,
	anchor time.Time,
	startDay time.Time,
	stats *Stats,
) (articleDate time.Time, pastLimit bool, err error) {
	if !a.eligible(link) {
		return time.Time{}, false, nil
	}

	exists, err := a.alreadyIngested(ctx, link)
	if err != nil {
		a.logger.Error("dedup lookup failed", "url", link, "error", err)
		stats.ArticleFailures++
		return time.Time{}, false, err
	}
	if exists {
		stats.ArticlesSkipped++
		return time.Time{}, false, nil
	}

	record, articleDate, err := a.scrapeArticle(ctx, link, anchor)
	if err != nil {
		a.logger.Error("article scrape failed", "url", link, "error", err)
		stats.ArticleFailures++
		return time.Time{}, false, err
	}

	if !articleDate.IsZero() && articleDate.Before(startDay) {
		return articleDate, true, nil
	}

	if err := a.persist(ctx, record); err != nil {
		a.logger.Error("article insert failed", "url", link, "error", err)
		stats.ArticleFailures++
		return time.Time{}, false, err
	}
	stats.ArticlesIngested++
	return articleDate, false, nil
}

func (a *Archive) fetchIndexPage(ctx context.Context, pageURL string) (*html.Node, error) {
	content, err := a.fetcher.Fetch(ctx, pageURL, fetch.Params(a.site.CrawlParams))
	if err != nil {
		return nil, err
	}
	return extract.ParseHTML(content)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

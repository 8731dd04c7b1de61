// Package seeds expands archive URL templates across a date range into the
// initial frontier of a crawl.
package seeds

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/newscrawl/internal/frontier"
)

// Format substitutes the {year}, {month} and {day} placeholders of an archive
// URL template. Month and day are zero-padded to two digits.
func Format(template string, date time.Time) string {
	replacer := strings.NewReplacer(
		"{year}", fmt.Sprintf("%04d", date.Year()),
		"{month}", fmt.Sprintf("%02d", int(date.Month())),
		"{day}", fmt.Sprintf("%02d", date.Day()),
	)
	return replacer.Replace(template)
}

// Generate expands every (template, day) pair over [start, end] inclusive
// into frontier items. A zero end covers exactly the start day. URLs are
// deduplicated (two templates collapsing to the same URL keep the first date
// seen) and the result is ordered by (date, url) descending, so the crawl
// proceeds newest first.
func Generate(templates []string, start, end time.Time) []frontier.Item {
	start = truncate(start)
	if end.IsZero() {
		end = start
	} else {
		end = truncate(end)
	}

	seen := make(map[string]time.Time)
	var urls []string
	for _, template := range templates {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			url := Format(template, day)
			if _, ok := seen[url]; ok {
				continue
			}
			seen[url] = day
			urls = append(urls, url)
		}
	}

	items := make([]frontier.Item, 0, len(urls))
	for _, url := range urls {
		items = append(items, frontier.Item{AnchorDate: seen[url], URL: url})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AnchorDate.Equal(items[j].AnchorDate) {
			return items[i].AnchorDate.After(items[j].AnchorDate)
		}
		return items[i].URL > items[j].URL
	})
	return items
}

// truncate drops the time-of-day component, keeping dates comparable.
func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Package crawl implements the crawl command for running archive crawls.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscrawl/cmd/common"
	"github.com/jonesrussell/newscrawl/internal/crawler"
	"github.com/jonesrussell/newscrawl/internal/dates"
	"github.com/jonesrussell/newscrawl/internal/sites"
)

// options are the crawl command's flag values.
type options struct {
	site      string
	startDate string
	endDate   string
	pageLimit int
}

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl news site archives",
		Long: `Crawl the archive pages of configured news sites and store extracted articles.

Without --site, every enabled site is crawled concurrently. The date flags
bound the archive window; without them only today's archive pages are visited.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.site, "site", "", "crawl only the named site")
	cmd.Flags().StringVar(&opts.startDate, "start-date", "", "first archive day to crawl (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&opts.endDate, "end-date", "", "last archive day to crawl (YYYY-MM-DD, default start date)")
	cmd.Flags().IntVar(&opts.pageLimit, "page-limit", 0, "pagination depth bound (0 means use the configured default)")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	start, end, err := parseWindow(opts.startDate, opts.endDate)
	if err != nil {
		return err
	}

	pageLimit := opts.pageLimit
	if pageLimit <= 0 {
		pageLimit = deps.Config.Crawl.PageLimit
	}

	manager, err := common.LoadSites(deps.Config, deps.Logger)
	if err != nil {
		return err
	}

	targets, err := selectTargets(manager, opts.site)
	if err != nil {
		return err
	}

	fetcher, err := common.NewFetcher(deps.Config, deps.Logger)
	if err != nil {
		return err
	}
	articles, closeStore, err := common.OpenStore(ctx, deps.Config, deps.Logger)
	if err != nil {
		return err
	}
	defer closeStore()

	crawlerDeps := crawler.Deps{Fetcher: fetcher, Store: articles, Logger: deps.Logger}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for _, site := range targets {
		instance, buildErr := crawler.New(site, crawlerDeps)
		if buildErr != nil {
			return fmt.Errorf("failed to build crawler for %s: %w", site.Name, buildErr)
		}

		wg.Add(1)
		go func(name string, c crawler.Interface) {
			defer wg.Done()
			if runErr := c.RunBetween(ctx, start, end, pageLimit); runErr != nil {
				deps.Logger.Error("crawl failed", "site", name, "error", runErr)
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", name, runErr))
				mu.Unlock()
			}
		}(site.Name, instance)
	}
	wg.Wait()

	return errors.Join(failures...)
}

// selectTargets resolves the --site flag to the list of sites to crawl.
func selectTargets(manager *sites.Manager, name string) ([]*sites.Config, error) {
	if name != "" {
		site, err := manager.Get(name)
		if err != nil {
			return nil, err
		}
		return []*sites.Config{site}, nil
	}

	enabled := manager.Enabled()
	if len(enabled) == 0 {
		return nil, errors.New("no enabled sites configured")
	}
	return enabled, nil
}

// parseWindow resolves the date flags. Both default to today; the window must
// not be inverted.
func parseWindow(startFlag, endFlag string) (start, end time.Time, err error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)

	start = today
	if startFlag != "" {
		start, err = time.Parse(dates.Canonical, startFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q: %w", startFlag, err)
		}
	}

	end = start
	if endFlag != "" {
		end, err = time.Parse(dates.Canonical, endFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end-date %q: %w", endFlag, err)
		}
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end-date %s precedes --start-date %s",
			end.Format(dates.Canonical), start.Format(dates.Canonical))
	}
	return start, end, nil
}

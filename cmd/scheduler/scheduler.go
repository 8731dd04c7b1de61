// Package scheduler implements the scheduler command: recurring current-day
// crawls of every enabled site on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/newscrawl/cmd/common"
	"github.com/jonesrussell/newscrawl/internal/crawler"
	"github.com/jonesrussell/newscrawl/internal/logger"
	"github.com/jonesrussell/newscrawl/internal/sites"
)

// Command returns the scheduler command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run recurring current-day crawls",
		Long: `Start the scheduler to crawl every enabled site's current archive day on a
cron schedule. The scheduler runs until interrupted with Ctrl+C.`,
		RunE: runScheduler,
	}
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := common.NewCommandDeps()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	manager, err := common.LoadSites(deps.Config, deps.Logger)
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

	job := &crawlJob{
		manager:   manager,
		deps:      crawler.Deps{Fetcher: fetcher, Store: articles, Logger: deps.Logger},
		pageLimit: deps.Config.Crawl.PageLimit,
		logger:    deps.Logger,
	}

	scheduler := cron.New()
	if _, addErr := scheduler.AddFunc(deps.Config.Crawl.Schedule, func() { job.run(ctx) }); addErr != nil {
		return fmt.Errorf("invalid schedule %q: %w", deps.Config.Crawl.Schedule, addErr)
	}

	deps.Logger.Info("scheduler starting", "schedule", deps.Config.Crawl.Schedule)
	scheduler.Start()

	<-ctx.Done()
	deps.Logger.Info("shutdown signal received, waiting for running jobs")
	<-scheduler.Stop().Done()
	return nil
}

// crawlJob crawls every enabled site's current archive day. Runs overlap only
// if a crawl outlasts the schedule interval; dedup makes that harmless.
type crawlJob struct {
	manager   *sites.Manager
	deps      crawler.Deps
	pageLimit int
	logger    logger.Interface
}

func (j *crawlJob) run(ctx context.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	j.logger.Info("scheduled crawl starting", "date", today.Format("2006-01-02"))

	var wg sync.WaitGroup
	for _, site := range j.manager.Enabled() {
		instance, err := crawler.New(site, j.deps)
		if err != nil {
			j.logger.Error("failed to build crawler", "site", site.Name, "error", err)
			continue
		}

		wg.Add(1)
		go func(name string, c crawler.Interface) {
			defer wg.Done()
			if runErr := c.Run(ctx, today, j.pageLimit); runErr != nil {
				j.logger.Error("scheduled crawl failed", "site", name, "error", runErr)
			}
		}(site.Name, instance)
	}
	wg.Wait()
	j.logger.Info("scheduled crawl finished")
}

// Package cmd implements the command-line interface for newscrawl.
// It provides the root command and subcommands for running archive crawls.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/newscrawl/cmd/crawl"
	cmdscheduler "github.com/jonesrussell/newscrawl/cmd/scheduler"
	cmdsites "github.com/jonesrussell/newscrawl/cmd/sites"
	"github.com/jonesrussell/newscrawl/internal/config"
	"github.com/jonesrussell/newscrawl/internal/fetch"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands.
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "newscrawl",
		Short: "A news archive crawler",
		Long:  `Crawls news site archives through a rendering proxy and extracts articles into PostgreSQL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper
	_ = godotenv.Load()

	// Parse flags early to get the debug flag before creating loggers
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("newscrawl version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(cmdsites.Command())
}

// initConfig reads the config file and environment variables into viper.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Environment variables take precedence over defaults
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional; defaults and environment variables cover the rest
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	if Debug || viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
		viper.Set("logger.development", true)
		Debug = true
	}

	return nil
}

// bindEnvVars maps well-known environment variable names to config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"logger.level":      {"LOG_LEVEL"},
		"logger.encoding":   {"LOG_FORMAT"},
		"proxy.api_key":     {"ZENROWS_API_KEY", "PROXY_API_KEY"},
		"proxy.base_url":    {"PROXY_BASE_URL"},
		"database.host":     {"POSTGRES_HOST"},
		"database.port":     {"POSTGRES_PORT"},
		"database.user":     {"POSTGRES_USER"},
		"database.password": {"POSTGRES_PASSWORD"},
		"database.dbname":   {"POSTGRES_DB"},
		"database.sslmode":  {"POSTGRES_SSLMODE"},
		"crawl.sites_file":  {"SITES_FILE"},
		"crawl.schedule":    {"CRAWL_SCHEDULE"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":  "newscrawl",
		"debug": false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":       "info",
		"development": false,
		"encoding":    "console",
	})

	viper.SetDefault("proxy", map[string]any{
		"base_url":         "https://api.zenrows.com/v1/",
		"timeout":          fetch.DefaultTimeout.String(),
		"max_attempts":     fetch.DefaultMaxAttempts,
		"initial_interval": fetch.DefaultInitialInterval.String(),
		"max_interval":     fetch.DefaultMaxInterval.String(),
	})

	viper.SetDefault("database", map[string]any{
		"host":    "127.0.0.1",
		"port":    "5432",
		"user":    "newscrawl",
		"dbname":  "newscrawl",
		"sslmode": "disable",
	})

	viper.SetDefault("crawl", map[string]any{
		"sites_file": config.DefaultSitesFile,
		"page_limit": config.DefaultPageLimit,
		"schedule":   config.DefaultSchedule,
	})
}

package commands

import (
	"log/slog"
	"net/http"
	"time"

	"devscout/lib/scrapers/freelancer"
	"devscout/lib/scrapers/github"
	"devscout/lib/serviceutil"
	"devscout/services/contacts"

	"github.com/spf13/cobra"
)

var (
	marketPages *int
	marketQuery *string
	marketOut   *string
	marketDb    *string
)

func init() {
	marketPages = marketplaceCmd.Flags().Int("pages", 5, "Page ceiling for the marketplace search (0 = unbounded).")
	marketQuery = marketplaceCmd.Flags().String("query", "", "Marketplace search query (overrides config).")
	marketOut = marketplaceCmd.Flags().String("out", "freelancer_emails.json", "Output artifact path.")
	marketDb = marketplaceCmd.Flags().String("db", "", "Optional sqlite run archive.")
	rootCmd.AddCommand(marketplaceCmd)
}

var marketplaceCmd = &cobra.Command{
	Use:   "marketplace [--pages N] [--query Q] [--out file] [--db file]",
	Short: "Crawls freelancer profiles for github accounts, then harvests them.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		query := cfg.Query
		if *marketQuery != "" {
			query = *marketQuery
		}
		if query == "" {
			query = "software developer"
		}
		maxPages := cfg.MaxPages
		if cmd.Flags().Changed("pages") || maxPages == 0 {
			maxPages = *marketPages
		}
		baseUrl := cfg.Marketplace.BaseUrl
		if baseUrl == "" {
			baseUrl = "https://www.freelancer.com"
		}

		var cookies []*http.Cookie
		if cfg.Marketplace.CookieFile != "" {
			var err error
			cookies, err = freelancer.LoadCookies(cfg.Marketplace.CookieFile)
			if err != nil {
				// absence of a session is the default, supported mode
				slog.Warn("continuing without marketplace session", "file", cfg.Marketplace.CookieFile, "err", err)
			}
		}

		marketplace, err := freelancer.NewClient(freelancer.ClientOptions{
			BaseURL:    baseUrl,
			SearchPath: cfg.Marketplace.SearchPath,
			Cookies:    cookies,
			Dump:       dumpOutput(),
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize marketplace client", err)
		}

		gh, err := github.NewClient(github.ClientOptions{
			Token: cfg.GithubToken,
			Dump:  dumpOutput(),
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize github client", err)
		}

		pipeline := contacts.NewPipeline(gh, marketplace, contacts.Config{
			Query:      query,
			MaxPages:   maxPages,
			OutputPath: *marketOut,
			DBPath:     *marketDb,
		})

		t1 := time.Now()
		err = pipeline.RunMarketplace(cmd.Context())
		if err != nil {
			serviceutil.Fatal("marketplace run failed", err)
		}
		slog.Info("run finished", "seconds", time.Since(t1).Seconds())
	},
}

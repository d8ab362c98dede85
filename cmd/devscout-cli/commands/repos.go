package commands

import (
	"log/slog"
	"time"

	"devscout/lib/scrapers/github"
	"devscout/lib/serviceutil"
	"devscout/services/contacts"

	"github.com/spf13/cobra"
)

var (
	reposPages *int
	reposQuery *string
	reposOut   *string
	reposDb    *string
)

func init() {
	reposPages = reposCmd.Flags().Int("pages", 10, "Page ceiling for the repository search (0 = unbounded).")
	reposQuery = reposCmd.Flags().String("query", "", "Repository search query (overrides config).")
	reposOut = reposCmd.Flags().String("out", "github_emails.json", "Output artifact path.")
	reposDb = reposCmd.Flags().String("db", "", "Optional sqlite run archive.")
	rootCmd.AddCommand(reposCmd)
}

var reposCmd = &cobra.Command{
	Use:   "repos [--pages N] [--query Q] [--out file] [--db file]",
	Short: "Harvests contributor and commit emails from popular repositories.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := readConfig()

		query := cfg.Query
		if *reposQuery != "" {
			query = *reposQuery
		}
		if query == "" {
			query = "stars:>1000"
		}
		maxPages := cfg.MaxPages
		if cmd.Flags().Changed("pages") || maxPages == 0 {
			maxPages = *reposPages
		}

		gh, err := github.NewClient(github.ClientOptions{
			Token: cfg.GithubToken,
			Dump:  dumpOutput(),
		})
		if err != nil {
			serviceutil.Fatal("failed to initialize github client", err)
		}

		pipeline := contacts.NewPipeline(gh, nil, contacts.Config{
			Query:      query,
			MaxPages:   maxPages,
			OutputPath: *reposOut,
			DBPath:     *reposDb,
		})

		t1 := time.Now()
		err = pipeline.RunRepoSearch(cmd.Context())
		if err != nil {
			serviceutil.Fatal("repository-search run failed", err)
		}
		slog.Info("run finished", "seconds", time.Since(t1).Seconds())
	},
}

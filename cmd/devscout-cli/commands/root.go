package commands

import (
	"context"
	"fmt"
	"os"

	"devscout/lib/configutil"
	"devscout/lib/restyutil"
	"devscout/lib/telemetry"

	"github.com/spf13/cobra"
)

// Config is the file-level configuration (devscout.json5 plus a .local
// override). Flags take precedence over it.
type Config struct {
	GithubToken string `json:"github_token"`
	Query       string `json:"query"`
	MaxPages    int    `json:"max_pages"`
	Marketplace struct {
		BaseUrl    string `json:"base_url"`
		SearchPath string `json:"search_path"`
		CookieFile string `json:"cookie_file"`
	} `json:"marketplace"`
}

var (
	verbose  *bool
	dumpHttp *string
)

var rootCmd = &cobra.Command{
	Use:   "devscout-cli",
	Short: "devscout-cli collects public developer contact emails from github and freelance marketplaces.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug narration of every fetch.")
	dumpHttp = rootCmd.PersistentFlags().String("dump-http", "", "Dump every http exchange to the given directory.")
}

// dumpOutput returns the exchange dump destination, nil when --dump-http
// is unset.
func dumpOutput() restyutil.DumpOutput {
	if *dumpHttp == "" {
		return nil
	}
	return restyutil.NewFilesystemOutput(*dumpHttp)
}

func readConfig() Config {
	cfg, err := configutil.ReadRecursively[Config]("devscout.json5")
	if os.IsNotExist(err) {
		return Config{}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

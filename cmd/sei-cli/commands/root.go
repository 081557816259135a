package commands

import (
	"context"
	"fmt"
	"os"
	"seiassist-backend/internal/components/telemetry"
	"seiassist-backend/internal/scrapers/sei"
	"seiassist-backend/lib/configutil"
	libtelemetry "seiassist-backend/lib/telemetry"
	"seiassist-backend/lib/util/restyutil"
	"time"

	"github.com/spf13/cobra"
)

type Config struct {
	BaseUrl           string  `json:"base_url"`
	Username          string  `json:"username"`
	Password          string  `json:"password"`
	CloudflareBypass  bool    `json:"cloudflare_bypass"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

var (
	configPath string
	token      string
	asJson     bool
	verbose    bool
	dumpDir    string
)

var (
	cfg    Config
	client *sei.Client
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "sei.json5", "The configuration file, searched for in parent directories.")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "A session token (JSESSIONID), when empty the configured credentials are used to log in.")
	rootCmd.PersistentFlags().BoolVar(&asJson, "json", false, "Print the result as json instead of a table.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().StringVar(&dumpDir, "dump", "", "A directory to write every http exchange with the portal to.")
}

var rootCmd = &cobra.Command{
	Use:           "sei-cli",
	Short:         "sei-cli is a CLI for logging into the SEI student portal and reading its pages.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		libtelemetry.InitSlog(verbose)

		var err error
		cfg, err = configutil.ReadRecursively[Config](configPath)
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}

		opts := sei.ClientOptions{
			BaseUrl:           cfg.BaseUrl,
			Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
			CloudflareBypass:  cfg.CloudflareBypass,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Tel:               telemetry.NewSlogAPI(nil),
		}
		if dumpDir != "" {
			output, err := restyutil.NewFilesystemOutput(dumpDir)
			if err != nil {
				return fmt.Errorf("create dump directory: %w", err)
			}
			opts.Dump = output
		}

		client, err = sei.NewClient(opts)
		return err
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

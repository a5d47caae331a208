package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantmind-br/url2bibtex-go/internal/config"
	"github.com/quantmind-br/url2bibtex-go/internal/converter"
	"github.com/quantmind-br/url2bibtex-go/internal/server"
	"github.com/quantmind-br/url2bibtex-go/internal/utils"
	"github.com/quantmind-br/url2bibtex-go/pkg/version"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "url2bibtex [url...]",
	Short: "Convert academic URLs to BibTeX citations",
	Long: `url2bibtex converts URLs of academic papers and software repositories
into BibTeX citations.

Supported sources include arXiv, DOI resolvers, bioRxiv, ScienceDirect,
Cell Press, OpenReview, Semantic Scholar, GitHub/GitLab/Zenodo, IEEE
Xplore, and the ACL Anthology, with an HTML meta-tag fallback for any
publisher page carrying citation metadata.`,
	Version: version.Short(),
	Args:    cobra.ArbitraryArgs,
	RunE:    runConvert,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.url2bibtex/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Duration("timeout", config.DefaultFetchTimeout, "Per-request timeout")
	rootCmd.PersistentFlags().Int("max-retries", config.DefaultMaxRetries, "Max retry attempts per request")

	_ = viper.BindPFlag("fetch.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("fetch.max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))

	serveCmd.Flags().String("addr", config.DefaultServerAddr, "Listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(handlersCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setup loads config and builds the converter shared by the subcommands.
func setup() (*config.Config, *converter.Converter, error) {
	logLevel := ""
	if verbose {
		logLevel = "debug"
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel == "" {
		logLevel = cfg.Logging.Level
	}

	log = utils.NewLogger(utils.LoggerOptions{
		Level:   logLevel,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})

	conv := converter.New(converter.Options{
		Timeout:    cfg.Fetch.Timeout,
		MaxRetries: cfg.Fetch.MaxRetries,
		Logger:     log,
	})
	return cfg, conv, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	_, conv, err := setup()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	if len(args) == 1 {
		entry, err := conv.Convert(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(entry)
		return nil
	}

	return convertBatch(ctx, conv, args)
}

// convertBatch converts URLs sequentially with a small randomized pause
// between requests so batches don't hammer the same host. Failures are
// reported per URL; the command fails if nothing converted.
func convertBatch(ctx context.Context, conv *converter.Converter, urls []string) error {
	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
	)

	succeeded := 0
	for i, url := range urls {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}

		entry, err := conv.Convert(ctx, url)
		_ = bar.Add(1)
		if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("conversion failed")
			continue
		}
		succeeded++
		fmt.Println(entry)
		fmt.Println()
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	if succeeded == 0 {
		return errors.New("no URLs converted")
	}
	log.Info().Int("succeeded", succeeded).Int("total", len(urls)).Msg("batch done")
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion API",
	Long:  "Starts an HTTP server exposing /convert, /handlers, and /health endpoints.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, conv, err := setup()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		srv := server.New(cfg.Server, conv, log)
		return srv.Run(ctx)
	},
}

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List registered handlers in dispatch order",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, conv, err := setup()
		if err != nil {
			return err
		}
		for i, h := range conv.Registry().List() {
			fmt.Printf("%2d. %-16s %s\n", i+1, h.Name(), h.Description())
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

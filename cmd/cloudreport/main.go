package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cloudreport/internal/cloudability"
	"cloudreport/internal/model"
	"cloudreport/internal/report"
	"cloudreport/internal/views"
)

const envPrefix = "CLOUDREPORT"

var (
	startDate   string
	endDate     string
	viewsPath   string
	outPath     string
	onViewError string
	logLevelStr string
)

var rootCmd = &cobra.Command{
	Use:   "cloudreport",
	Short: "exports Cloudability cost reports to a formatted workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "fetches the configured views and writes one worksheet per provider",
	Run:   runExport,
}

func init() {
	exportCmd.Flags().StringVar(&startDate, "start-date", "", "report start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&endDate, "end-date", "", "report end date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&viewsPath, "views", "configs/views.json", "path to the views config file")
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file path (default cloudability_report_<end date>.xlsx)")
	exportCmd.Flags().StringVar(&onViewError, "on-view-error", string(report.PolicySkip), "what a single view's fetch failure does: skip or abort")
	exportCmd.Flags().StringVar(&logLevelStr, "log-level", log.InfoLevel.String(), "log level")
}

func main() {
	// Optional; the environment itself is the usual source of the API key.
	_ = godotenv.Load()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	rootCmd.AddCommand(exportCmd)
	if err := setFlagsFromEnv(exportCmd.Flags(), envPrefix); err != nil {
		log.WithError(err).Fatal("error setting flags from environment variables")
	}
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("error executing command")
	}
}

func runExport(cmd *cobra.Command, _ []string) {
	logger := newLogger()

	if startDate == "" || endDate == "" {
		fmt.Fprintln(os.Stderr, "both --start-date and --end-date are required")
		os.Exit(2)
	}
	dates, err := model.NewDateRange(startDate, endDate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	policy, err := report.ParsePolicy(onViewError)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	catalog, err := views.Load(viewsPath)
	if err != nil {
		logger.WithField("path", viewsPath).WithError(err).Fatal("loading views config failed")
	}

	// Client construction checks the API key, so a missing key fails here,
	// before anything goes over the wire.
	client, err := cloudability.New(logger)
	if err != nil {
		logger.WithError(err).Fatal("configuring API client failed")
	}

	out := outPath
	if out == "" {
		out = fmt.Sprintf("cloudability_report_%s.xlsx", dates.End.Format("20060102"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := report.NewRunner(apiFetcher{client: client}, logger, policy)
	if err := runner.Run(ctx, catalog, dates, out); err != nil {
		logger.WithError(err).Fatal("export run failed")
	}
}

// apiFetcher adapts the concrete client to the runner's fetcher interface.
type apiFetcher struct {
	client *cloudability.Client
}

func (f apiFetcher) Fetch(view model.ViewSpec, dates model.DateRange) report.RowCursor {
	return f.client.Fetch(view, dates)
}

func newLogger() log.FieldLogger {
	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(logLevelStr)
	if err != nil {
		logger.WithError(err).Warnf("invalid log level %q, using info", logLevelStr)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// setFlagsFromEnv fills unset flags from PREFIX_FLAG_NAME environment
// variables, so the tool can run flagless under a scheduler.
func setFlagsFromEnv(flags *pflag.FlagSet, prefix string) error {
	var lastErr error
	flags.VisitAll(func(flag *pflag.Flag) {
		if flag.Changed {
			return
		}
		name := prefix + "_" + strings.ToUpper(strings.ReplaceAll(flag.Name, "-", "_"))
		if value, ok := os.LookupEnv(name); ok {
			if err := flags.Set(flag.Name, value); err != nil {
				lastErr = fmt.Errorf("setting flag %s from %s: %w", flag.Name, name, err)
			}
		}
	})
	return lastErr
}

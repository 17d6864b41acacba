package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/common/version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/operator-framework/usage-reporter/cmd/helpers"
	"github.com/operator-framework/usage-reporter/pkg/config"
	"github.com/operator-framework/usage-reporter/pkg/reporter"
)

const (
	appName   = "usage-reporter"
	envPrefix = "USAGE_REPORTER"
)

var (
	// cfg is the config for every command
	cfg = config.New()

	logLevelStr         string
	logDefaultFormatter bool
	envFile             string
)

// legacyEnvVars maps the variable names deployments of the weekly report
// already export onto their flags.
var legacyEnvVars = map[string]string{
	"COMMON_TAG_KEY":                 "cluster-tag-key",
	"COMMON_TAG_VALUE":               "cluster-tag-value",
	"DISTINCT_TAG_KEY":               "user-tag-key",
	"START_DATE":                     "start-date",
	"S3_BUCKET_FOR_ALL_DATA":         "bucket",
	"S3_KEY_FOR_COST_DATA_PER_USER":  "cost-key",
	"S3_KEY_FOR_USAGE_DATA_PER_USER": "usage-key",
	"EMAIL_SENDER_ADDRESS":           "sender-address",
	"EMAIL_SENDER_NAME":              "sender-name",
	"EMAIL_RECIPIENTS":               "recipients",
	"ATG_HELP_EMAIL_ADDRESS":         "help-address",
	"AWS_REGION":                     "region",
}

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Emails a weekly per-user compute usage and cost report for a shared cluster",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "runs the report once for today and exits",
	RunE:  runOnce,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "runs the report on a cron schedule and serves the HTTP API",
	RunE:  runScheduled,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "prints version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Print(appName))
	},
}

func AddCommands() {
	rootCmd.AddCommand(runCmd, scheduleCmd, versionCmd)
}

func init() {
	// globally set time to UTC
	time.Local = time.UTC
	addFlags(rootCmd.PersistentFlags(), &cfg)
}

func addFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&logLevelStr, "log-level", log.InfoLevel.String(), "log level")
	flags.BoolVar(&logDefaultFormatter, "log-text", true, "log as text with full timestamps, otherwise log JSON")
	flags.StringVar(&envFile, "env-file", config.DefaultDotEnvFile, "a dotenv file to load into the environment before reading settings from it, skipped when missing")

	flags.StringVar(&cfg.ClusterTagKey, "cluster-tag-key", cfg.ClusterTagKey, "the tag key every instance of the cluster carries")
	flags.StringVar(&cfg.ClusterTagValue, "cluster-tag-value", cfg.ClusterTagValue, "the value of --cluster-tag-key identifying the cluster")
	flags.StringVar(&cfg.UserTagKey, "user-tag-key", cfg.UserTagKey, "the tag key naming the user an instance belongs to")
	flags.StringVar(&cfg.StartDate, "start-date", cfg.StartDate, "the first day (YYYY-MM-DD) costs are accumulated from")

	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "where history is kept, one of: s3 or file")
	flags.StringVar(&cfg.Bucket, "bucket", cfg.Bucket, "the S3 bucket history is kept in")
	flags.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "the directory history is kept in when --storage=file")
	flags.StringVar(&cfg.CostKey, "cost-key", cfg.CostKey, "the object key of the cumulative cost table")
	flags.StringVar(&cfg.UsageKey, "usage-key", cfg.UsageKey, "the object key of the daily usage table")
	flags.StringVar(&cfg.Region, "region", cfg.Region, "the AWS region to use")

	flags.StringVar(&cfg.SenderAddress, "sender-address", cfg.SenderAddress, "the address the report is sent from")
	flags.StringVar(&cfg.SenderName, "sender-name", cfg.SenderName, "the display name the report is sent from and signed with")
	flags.StringSliceVar(&cfg.Recipients, "recipients", cfg.Recipients, "the addresses the report is sent to")
	flags.StringVar(&cfg.HelpAddress, "help-address", cfg.HelpAddress, "the address users are told to contact with questions")
	flags.StringVar(&cfg.EmailTemplate, "email-template", cfg.EmailTemplate, "a text/template file used for the email body instead of the built-in one")
	flags.BoolVar(&cfg.AttachCSV, "attach-csv", cfg.AttachCSV, "attach the history tables and the weekly summary as CSV files")
	flags.StringVar(&cfg.DryRunDir, "dry-run-dir", cfg.DryRunDir, "if set, the email is written to this directory instead of being sent")

	flags.StringSliceVar(&cfg.KnownUsers, "known-users", cfg.KnownUsers, "the user ids owner tags are matched against; any value is accepted when empty")
	flags.StringVar(&cfg.UserIDPattern, "user-id-pattern", cfg.UserIDPattern, "a regular expression owner tags must match to be attributed")
	flags.StringVar(&cfg.UsageTypeGroup, "usage-type-group", cfg.UsageTypeGroup, "the Cost Explorer usage type group usage hours are read from")

	flags.DurationVar(&cfg.RunTimeout, "run-timeout", cfg.RunTimeout, "the longest a single run may take")
	flags.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "the cron expression (UTC) runs are started on in schedule mode")
	flags.StringVar(&cfg.ListenAddr, "listen-addr", cfg.ListenAddr, "the address the HTTP API listens on in schedule mode")
}

// loadSettings fills in every flag not given on the command line, first from
// USAGE_REPORTER_* variables and then from the legacy names. A dotenv file
// only adds variables that aren't already set.
func loadSettings(flags *pflag.FlagSet) error {
	loaded, err := config.LoadDotEnv(envFile)
	if err != nil {
		return err
	}
	if err := helpers.SetFlagsFromEnv(flags, envPrefix); err != nil {
		return fmt.Errorf("error setting flags from environment variables: %w", err)
	}
	if err := helpers.MapEnvVarToFlag(legacyEnvVars, flags); err != nil {
		return fmt.Errorf("error setting flags from environment variables: %w", err)
	}
	if loaded != "" {
		log.Debugf("loaded environment from %s", loaded)
	}
	return nil
}

func main() {
	AddCommands()

	rootCmd.ParseFlags(os.Args[1:])

	if err := loadSettings(rootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Fatalf("error loading settings: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		log.WithField("kind", reporter.KindOf(err)).WithError(err).Fatal("usage-reporter failed")
	}
}

func newLogger() (log.FieldLogger, error) {
	return helpers.SetupLogger(logLevelStr, logDefaultFormatter, log.Fields{"app": appName})
}

// setup validates cfg and builds a Reporter from it. Invalid settings are
// returned as a ConfigurationError.
func setup(logger log.FieldLogger, cfg config.Config) (*reporter.Reporter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &reporter.RunError{Step: reporter.StepFailed, Kind: reporter.ConfigurationError, Err: err}
	}
	deps, err := reporter.NewDependencies(logger, cfg)
	if err != nil {
		var runErr *reporter.RunError
		if errors.As(err, &runErr) {
			return nil, err
		}
		return nil, &reporter.RunError{Step: reporter.StepFailed, Kind: reporter.ConfigurationError, Err: err}
	}
	return reporter.New(logger, cfg, deps)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	rep, err := setup(logger, cfg)
	if err != nil {
		return err
	}

	result, err := rep.Run(setupSignals())
	if err != nil {
		return err
	}
	if result.Skipped {
		logger.Infof("nothing to report before %s", cfg.StartDate)
		return nil
	}
	logger.WithField("messageID", result.MessageID).Infof("report for %s sent", result.Report.Period)
	return nil
}

func setupSignals() context.Context {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-sigs
		log.Infof("got signal %s, performing shutdown", sig)
		cancel()
	}()
	return ctx
}

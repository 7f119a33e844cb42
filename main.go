package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	backend     string
	namespace   string
	pageSize    int
	sortBy      string
	downloadDir string
	logFile     string
	logLevel    string
}

func newRootCommand() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:   "s4 <bucket-name>",
		Short: "s4 is a terminal file manager for S3 buckets",
		Long: `s4 browses a single S3 bucket as folders and files. Folders are key
prefixes ending in "/"; empty folders are kept by a ".keep" placeholder.
Configuration is read from an s3cmd compatible .s3cfg file.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to .s3cfg (default: ./.s3cfg, ~/.s3cfg, /etc/s3cfg)")
	flags.StringVar(&opts.backend, "backend", "", "client library: s3 or minio")
	flags.StringVar(&opts.namespace, "namespace", "", "key prefix all folders live under")
	flags.IntVar(&opts.pageSize, "page-size", 0, "maximum entries listed per folder")
	flags.StringVar(&opts.sortBy, "sort-by", "", "which entries fill a page: name or modified")
	flags.StringVar(&opts.downloadDir, "download-dir", "", "directory downloads are saved to")
	flags.StringVar(&opts.logFile, "log-file", "", "write logs to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

// applyFlags overrides file settings with the flags that were given.
func (o rootOptions) applyFlags(cmd *cobra.Command, cfg *S3Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("namespace") {
		cfg.Namespace = o.namespace
	}
	if flags.Changed("page-size") {
		cfg.PageSize = o.pageSize
	}
	if flags.Changed("sort-by") {
		cfg.SortBy = o.sortBy
	}
	if flags.Changed("download-dir") {
		cfg.DownloadDir = o.downloadDir
	}
	if flags.Changed("log-file") {
		cfg.LogFile = o.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
}

func run(cmd *cobra.Command, bucket string, opts rootOptions) error {
	config, err := LoadS3Config(opts.configPath)
	if err != nil {
		if opts.configPath != "" {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "No S3 configuration found: %s\n\n", err)
		config, err = InteractiveS3Setup(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("setup cancelled or failed: %w", err)
		}
	}
	opts.applyFlags(cmd, config)
	if err := config.Validate(); err != nil {
		return err
	}

	log, logCloser, err := NewLogger(config.LogFile, config.LogLevel)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	log = log.With().Str("bucket", bucket).Logger()

	gate := newPromptGate()
	ctrl := NewController(
		NewBucketConnector(config, bucket, log),
		gate,
		NewHTTPDownloader(config.DownloadDir, nil),
		ControllerOptions{
			Namespace: config.Namespace,
			PageSize:  config.PageSize,
			SortBy:    config.SortBy,
			Logger:    log,
		},
	)

	model := NewModel(ctrl, gate, bucket, config.Credentials())
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Command accesslogcore parses one or more access logs into logitem.Items
// and hands them to a downstream inserter.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"accessparse/internal/classify"
	"accessparse/internal/config"
	"accessparse/internal/downstream"
	"accessparse/internal/enrich"
	"accessparse/internal/logformat"
	"accessparse/internal/logging"
	"accessparse/internal/logsource"
	"accessparse/internal/pipeline"
	"accessparse/internal/resume"
	"accessparse/internal/runtimestate"
)

var version = "dev"

func main() {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "accesslogcore",
		Short: "Parse access logs into structured records",
	}

	var configFile string
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (TOML/YAML/JSON)")
	config.BindFlags(rootCmd.PersistentFlags())

	parseCmd := &cobra.Command{
		Use:   "parse [files...]",
		Short: "Parse the named logs (or stdin with --stdin / a bare \"-\")",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runParse(ctx, logger, cmd.Flags(), configFile, args)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate-mmdb [path]",
		Short: "Validate a GeoIP/ASN MMDB file without loading it into a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			info, err := enrich.ValidateMMDB(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: type=%s built=%s nodes=%d\n", args[0], info.DatabaseType, info.BuildTime, info.NodeCount)
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(parseCmd, validateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runParse(ctx context.Context, logger *slog.Logger, fs *pflag.FlagSet, configFile string, args []string) error {
	cctx, err := config.Load(fs, configFile)
	if err != nil {
		return fmt.Errorf("accesslogcore: %w", err)
	}

	runID := uuid.New()
	logger = logger.With("run_id", runID.String())

	filenames := args
	if cctx.ReadStdin || len(filenames) == 0 {
		filenames = []string{"-"}
	} else {
		expanded, err := logsource.ExpandGlobs(filenames)
		if err != nil {
			return fmt.Errorf("accesslogcore: expanding file arguments: %w", err)
		}
		if len(expanded) > 0 {
			filenames = expanded
		}
	}

	var dirs []logformat.Directive
	if !cctx.IsJSONLogFormat {
		dirs, err = logformat.Compile(cctx.LogFormat)
		if err != nil {
			return fmt.Errorf("accesslogcore: compiling log format: %w", err)
		}
		hasHost, hasReq, hasDate := logformat.RequiredDirectives(dirs)
		if !hasHost || !hasReq || !hasDate {
			return fmt.Errorf("accesslogcore: log format %q is missing a required %%h, %%r/%%U, or %%d directive", cctx.LogFormat)
		}
	}

	classifiers := enrich.NewClassifiers()
	if cctx.GeoIPPath != "" {
		geo := enrich.NewGeoIP()
		if _, err := geo.Load(cctx.GeoIPPath); err != nil {
			return fmt.Errorf("accesslogcore: loading geoip db: %w", err)
		}
		if err := geo.WatchFile(cctx.GeoIPPath); err != nil {
			logger.Warn("could not watch geoip db for changes", "path", cctx.GeoIPPath, "error", err)
		}
		classifiers.GeoIP = geo
		defer geo.Close()
	}
	if cctx.ASNPath != "" {
		asn := enrich.NewASN()
		if _, err := asn.Load(cctx.ASNPath); err != nil {
			return fmt.Errorf("accesslogcore: loading asn db: %w", err)
		}
		if err := asn.WatchFile(cctx.ASNPath); err != nil {
			logger.Warn("could not watch asn db for changes", "path", cctx.ASNPath, "error", err)
		}
		classifiers.ASN = asn
		defer asn.Close()
	}

	store := resume.NewStore(cctx.StateFile)
	state := runtimestate.New()
	startTime := time.Now()

	engineOpts := logformat.Options{
		DateFormat:     cctx.DateFormat,
		TimeFormat:     cctx.TimeFormat,
		DateNumFormat:  cctx.DateNumFormat,
		DoubleDecode:   cctx.DoubleDecode,
		NoIPValidation: cctx.NoIPValidation,
		NoStrictStatus: cctx.NoStrictStatus,
		StartTime:      startTime,
		IsValidStatus:  classifiers.IsValidHTTPStatus,
		State:          state,
	}

	classifyOpts := classify.Options{
		IgnoreCrawlers: cctx.IgnoreCrawlers,
		CrawlersOnly:   cctx.CrawlersOnly,
		IgnoreStatics:  classify.StaticsMode(cctx.IgnoreStatics),
		StaticFiles:    cctx.StaticFiles,
		AllStaticFiles: cctx.AllStaticFiles,
		IgnoreQStr:     cctx.IgnoreQStr,
		Code444As404:   cctx.Code444As404,
	}
	if len(cctx.IgnoreStatus) > 0 {
		classifyOpts.IgnoreStatus = make(map[int]bool, len(cctx.IgnoreStatus))
		for _, s := range cctx.IgnoreStatus {
			classifyOpts.IgnoreStatus[s] = true
		}
	}

	inserter := &downstream.CountingInserter{}

	pipeOpts := pipeline.Options{
		Jobs:           cctx.Jobs,
		ChunkSize:      cctx.ChunkSize,
		Directives:     dirs,
		Engine:         engineOpts,
		JSON:           cctx.IsJSONLogFormat,
		Policy:         classifiers,
		ClassifyOpts:   classifyOpts,
		Restore:        cctx.Restore,
		ResumeStore:    store,
		Inserter:       inserter,
		NumTests:       cctx.NumTests,
		ProcessAndExit: cctx.ProcessAndExit,
	}
	if cctx.IsJSONLogFormat {
		subformats := make(map[string][]logformat.Directive, len(cctx.JSONLogFormat))
		for key, fmtStr := range cctx.JSONLogFormat {
			sd, err := logformat.Compile(fmtStr)
			if err != nil {
				return fmt.Errorf("accesslogcore: compiling json subformat %q: %w", key, err)
			}
			subformats[key] = sd
		}
		pipeOpts.JSONOpts = logformat.JSONOptions{
			Engine:     engineOpts,
			Subformats: subformats,
			FieldPaths: cctx.JSONFieldPaths,
		}
	}

	logs, err := logsource.NewLogs(filenames)
	if err != nil {
		return fmt.Errorf("accesslogcore: %w", err)
	}
	defer func() { _ = logs.CloseAll() }()

	for _, l := range logs.All() {
		logs.SetCurrent(l.Filename)
		logger.Info("parsing log", "file", l.Filename, "job_count", cctx.Jobs)

		if err := pipeline.Run(ctx, l, pipeOpts); err != nil {
			if ctx.Err() != nil {
				logger.Info("stopped by signal", "file", l.Filename)
				break
			}
			return fmt.Errorf("accesslogcore: %s: %w", l.Filename, err)
		}

		logger.Info(l.Summary())

		if cctx.Follow && l.Filename != "-" {
			handler := pipeline.NewLineHandler(l, pipeOpts)
			follower := logsource.NewFollower(l, logger, func(line string) {
					if err := handler.Handle(ctx, line); err != nil {
						logger.Warn("follow: dropping line", "file", l.Filename, "error", err)
					}
			})
			if err := follower.Run(ctx); err != nil {
				logger.Warn("follow mode ended", "file", l.Filename, "error", err)
			}
			if err := handler.Flush(ctx); err != nil {
				logger.Warn("follow: failed to persist resume fingerprint", "file", l.Filename, "error", err)
			}
		}
	}

	logger.Info("run complete", "inserted", inserter.Count())
	return nil
}

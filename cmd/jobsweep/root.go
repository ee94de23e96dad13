package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amishk599/jobsweep/internal/adapter"
	"github.com/amishk599/jobsweep/internal/config"
	"github.com/amishk599/jobsweep/internal/export"
	"github.com/amishk599/jobsweep/internal/filter"
	"github.com/amishk599/jobsweep/internal/model"
	"github.com/amishk599/jobsweep/internal/notifier"
	"github.com/amishk599/jobsweep/internal/pipeline"
	"github.com/amishk599/jobsweep/internal/store"
	"github.com/amishk599/jobsweep/internal/upload"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:           "jobsweep",
	Short:         "Poll career pages and report what changed",
	Long:          "jobsweep polls every configured career page, merges the postings into one snapshot and reports which jobs appeared or disappeared since the last run.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSWEEP_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.ResolvePath(cfgPath))
}

// setupLogger logs to out and, when log.file is set, to a rotated file.
func setupLogger(dbg bool, out io.Writer, lc config.LogConfig) (*slog.Logger, func()) {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	closeFn := func() {}
	if lc.File != "" {
		lj := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
		}
		out = io.MultiWriter(out, lj)
		closeFn = func() { _ = lj.Close() }
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel})), closeFn
}

// setup loads the config and builds the logger every command starts with.
func setup() (*config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog := setupLogger(debug, os.Stdout, cfg.Log)
	return cfg, logger, closeLog, nil
}

// stragglerMargin lets the per-call deadline fire before the client's own.
const stragglerMargin = 10 * time.Second

// newHTTPClient sizes the client from the effective per-call timeout. With no
// timeout the client has none either and request contexts bound each call.
func newHTTPClient(callTimeout time.Duration) *http.Client {
	if callTimeout <= 0 {
		return &http.Client{}
	}
	return &http.Client{Timeout: callTimeout + stragglerMargin}
}

// closers runs cleanup functions in reverse order.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func setupNotifier(ctx context.Context, cfg *config.Config, httpClient *http.Client, logger *slog.Logger, cl *closers) (model.Notifier, error) {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger), nil
	case "redis":
		rdb, err := notifier.NewRedisClient(ctx, cfg.Notification.RedisURL)
		if err != nil {
			return nil, err
		}
		cl.add(func() { _ = rdb.Close() })
		logger.Info("using redis notifier", "channel", cfg.Notification.RedisChannel)
		return notifier.NewRedisNotifier(rdb, cfg.Notification.RedisChannel, logger), nil
	default:
		return notifier.NewLogNotifier(logger), nil
	}
}

// buildPipeline wires the configured sinks. Dry runs get none of them.
func buildPipeline(ctx context.Context, cfg *config.Config, callTimeout time.Duration, logger *slog.Logger, dryRun bool, cl *closers) (*pipeline.Pipeline, error) {
	httpClient := newHTTPClient(callTimeout)
	registry := adapter.DefaultRegistry(httpClient)

	var opts []pipeline.Option
	nc := cfg.Notification
	if len(nc.TitleKeywords) > 0 || len(nc.Locations) > 0 {
		opts = append(opts, pipeline.WithHighlightFilter(filter.NewTitleAndLocationFilter(nc.TitleKeywords, nc.Locations)))
	}
	if dryRun {
		return pipeline.New(registry, logger, opts...), nil
	}

	if cfg.Store.Path != "" {
		archive, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		cl.add(func() { _ = archive.Close() })
		if days := cfg.Store.RetentionDays; days > 0 {
			n, err := archive.Prune(ctx, time.Duration(days)*24*time.Hour)
			if err != nil {
				logger.Warn("pruning run archive failed", "error", err)
			} else if n > 0 {
				logger.Info("pruned run archive", "runs", n)
			}
		}
		opts = append(opts, pipeline.WithArchive(archive))
	}

	if dsn := cfg.Export.PostgresDSN; dsn != "" {
		pool, err := export.NewPostgresPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		cl.add(pool.Close)
		exp, err := export.NewPostgresExporter(ctx, pool, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithExporter(exp))
	}

	if u := cfg.Upload; u.Bucket != "" {
		client, err := upload.NewS3Client(ctx, upload.Options{Region: u.Region, Endpoint: u.Endpoint})
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithUploader(upload.NewS3Uploader(client, u.Bucket, u.Prefix, logger)))
	}

	n, err := setupNotifier(ctx, cfg, httpClient, logger, cl)
	if err != nil {
		return nil, err
	}
	opts = append(opts, pipeline.WithNotifier(n))

	return pipeline.New(registry, logger, opts...), nil
}

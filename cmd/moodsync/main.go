// moodsync is the command-line sync client for the moodboard manager. It
// reconciles the local SQLite store and blob directory with an S3-compatible
// bucket shared between devices.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/blob"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/config"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/remote"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/store"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/client/sync"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/filex"
	"github.com/romuloctba/zt-moodboard-manager-sub001/internal/logging"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "moodsync",
	Short:         "Sync the moodboard manager's local data with a shared bucket",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to the JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log per-item sync decisions")
}

// app bundles everything a command needs. Built once per invocation.
type app struct {
	cfg    *config.Config
	log    logging.Logger
	store  *store.Store
	blobs  *blob.Store
	engine *sync.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := logging.NewDefault(level)

	if _, err := filex.EnsureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.DatabasePath, err)
	}

	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	adapter, err := remote.NewS3Adapter(ctx, remote.S3Config{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		Bucket:          cfg.S3.Bucket,
		Prefix:          cfg.S3.Prefix,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	engine := sync.New(st, adapter, blobs, log, sync.Config{
		Strategy:       sync.Strategy(cfg.ConflictStrategy),
		DeviceName:     cfg.DeviceName,
		MaxItemRetries: cfg.MaxItemRetries,
		Parallelism:    cfg.Parallelism,
		OnProgress:     printProgress,
	})

	return &app{cfg: cfg, log: log, store: st, blobs: blobs, engine: engine}, nil
}

func (a *app) close() {
	_ = a.store.Close()
}

var lastPhase sync.Phase

func printProgress(p sync.Progress) {
	if p.Phase != lastPhase {
		lastPhase = p.Phase
		fmt.Fprintf(os.Stderr, "-- %s\n", p.Phase)
	}
	if p.Total > 0 {
		fmt.Fprintf(os.Stderr, "   %s %d/%d\n", p.EntityType, p.Current, p.Total)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

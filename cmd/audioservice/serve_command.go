package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/thegray/audioservice/internal/assetstore"
	"github.com/thegray/audioservice/internal/audioformat"
	"github.com/thegray/audioservice/internal/catalog"
	"github.com/thegray/audioservice/internal/logging"
	"github.com/thegray/audioservice/internal/resolver"
	"github.com/thegray/audioservice/internal/server"
	"github.com/thegray/audioservice/internal/transcode"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the audio API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, ctx)
		},
	}
}

func runServe(cmd *cobra.Command, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockFilePath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return errors.New("another audioservice instance is already running")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return err
	}
	defer store.Close()

	formats := audioformat.NewTable()
	assets := assetstore.New(cfg.Paths.AssetRoot)
	transcoder := transcode.NewFFmpeg(formats,
		transcode.WithBinary(cfg.FFmpeg.Binary),
		transcode.WithTimeout(time.Duration(cfg.FFmpeg.TimeoutSeconds)*time.Second),
	)
	engine := resolver.New(formats, assets, store, transcoder, logger)
	handler := server.NewHandler(engine, store, logger)
	srv := server.New(cfg.Paths.APIBind, handler, logger)

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := srv.Run(signalCtx); err != nil {
		logger.Error("api server", logging.Error(err))
		return err
	}
	logger.Info("audioservice shut down")
	return nil
}

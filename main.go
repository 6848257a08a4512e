package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"splitLines/vector"
)

func main() {
	// A missing .env is fine, the environment may already be set
	envErr := godotenv.Load()

	v := newViper()
	root, closeLog := newRootCmd(v, envErr)
	err := root.Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned func flushes and closes the log opened by the
// command that ran; call it once Execute returns, whatever the outcome.
func newRootCmd(v *viper.Viper, envErr error) (*cobra.Command, func()) {
	var logger *zap.Logger
	var closeLog func()

	root := &cobra.Command{
		Use:          "splitLines",
		Short:        "Break vector lines into equal-length segments",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(v)
			var err error
			logger, closeLog, err = newLogger(cfg.TempDir, cfg.LogLevel)
			if err != nil {
				return err
			}
			if envErr != nil {
				logger.Debug("No .env file loaded", zap.Error(envErr))
			}
			return nil
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, loadConfig(v), logger)
		},
	}

	var inPath, outPath string
	var geographic bool
	split := &cobra.Command{
		Use:   "split",
		Short: "Split the lines of a GeoJSON file into segments no longer than --max-length",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSplit(ctx, loadConfig(v), logger, inPath, outPath, geographic)
		},
	}
	split.Flags().StringVar(&inPath, "in", "", "Input vector file (GeoJSON)")
	split.Flags().StringVar(&outPath, "out", "", "Output vector file (GeoJSON)")
	split.Flags().Float64("max-length", 0, "Maximum line length, in the units of the input coordinates")
	split.Flags().BoolVar(&geographic, "geographic", false, "Coordinates are lon/lat; validate them and report geodesic length")
	_ = split.MarkFlagRequired("in")
	_ = split.MarkFlagRequired("out")
	_ = v.BindPFlag(keyMaxSegmentLength, split.Flags().Lookup("max-length"))

	root.AddCommand(serve, split)
	return root, func() {
		if closeLog != nil {
			closeLog()
			closeLog = nil
		}
	}
}

// newLogger writes JSON logs to stdout and to runtime.log in dir
func newLogger(dir, level string) (*zap.Logger, func(), error) {
	// Create a temp folder
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, errors.Wrapf(err, "create %s", dir)
	}

	f, err := os.OpenFile(filepath.Join(dir, "runtime.log"), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open runtime.log")
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrapf(err, "log level %q", level)
	}

	wrt := io.MultiWriter(os.Stdout, f)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(wrt), lvl)
	logger := zap.New(core)

	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}, nil
}

func runSplit(ctx context.Context, cfg Config, logger *zap.Logger, inPath, outPath string, geographic bool) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return errors.Wrapf(err, "read %s", inPath)
	}

	out, summary, err := splitLines(ctx, logger, uuid.NewString(), data, cfg.MaxSegmentLength, geographic)
	if err != nil {
		return err
	}

	fc, err := vector.ToGeoJSON(out)
	if err != nil {
		return err
	}
	if err := writeOutput(fc, outPath); err != nil {
		return err
	}

	fmt.Printf("%s: %d features -> %d segments\n", outPath, summary.InputFeatures, summary.Segments)
	return nil
}

func runServe(ctx context.Context, cfg Config, logger *zap.Logger) error {
	// Set the router as the one built for this config
	router := newRouter(cfg, logger)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	mcpServer := newMCPServer(logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		//Start and run the server if production environment
		if cfg.isProd() {
			logger.Info("Starting server in production environment", zap.String("addr", srv.Addr))
			err = srv.ListenAndServeTLS(cfg.CertPath, cfg.KeyPath)
		} else {
			logger.Info("Starting server in development environment", zap.String("addr", srv.Addr))
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("MCP server is starting",
			zap.String("url", fmt.Sprintf("http://localhost:%s%s", cfg.MCPPort, MCPEndpointPath)))
		err := mcpServer.Start(":" + cfg.MCPPort)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		logger.Info("Shutting down")
		if err := mcpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown", zap.Error(err))
		}
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

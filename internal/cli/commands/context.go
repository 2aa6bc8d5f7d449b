// Package commands implements the leapguard subcommands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leapguard/internal/cli/config"
	"github.com/leapstack-labs/leapguard/internal/cli/output"
	"github.com/spf13/cobra"
)

// configKey is used to store config in context.
type configKey struct{}

// rendererKey is used to store renderer in context.
type rendererKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFrom retrieves the config from the context, falling back to
// defaults when none was stored.
func ConfigFrom(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		TemplatesDir: config.DefaultTemplatesDir,
		CacheDir:     config.DefaultCacheDir,
		ReportsDir:   config.DefaultReportsDir,
		HistoryPath:  config.DefaultHistoryFile,
		SampleLimit:  config.DefaultSampleLimit,
		Workers:      config.DefaultWorkers,
		OutputFormat: config.DefaultOutput,
	}
}

// WithRenderer stores the renderer in the context.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// RendererFrom retrieves the renderer from the context, falling back to
// a stdout renderer when none was stored.
func RendererFrom(ctx context.Context) *output.Renderer {
	if r, ok := ctx.Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
}

// newLogger builds the command logger. Verbose enables debug output on
// stderr; otherwise only warnings and errors surface.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

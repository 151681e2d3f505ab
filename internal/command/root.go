package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/evanofslack/cfdns/internal/config"
	"github.com/evanofslack/cfdns/internal/logger"
	"github.com/evanofslack/cfdns/internal/metrics"
	"github.com/evanofslack/cfdns/internal/provider"
	"github.com/evanofslack/cfdns/internal/provider/cloudflare"
	"github.com/evanofslack/cfdns/internal/reconcile"
	"github.com/evanofslack/cfdns/internal/source"
	"github.com/evanofslack/cfdns/internal/source/netif"
)

// app holds what the commands share. Tests swap the filesystem, the address
// source and the provider factory.
type app struct {
	fs         afero.Fs
	out        io.Writer
	source     source.Source
	newFactory func(m *metrics.Metrics) provider.Factory

	configPath string
	logLevel   string
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		out:    os.Stdout,
		source: netif.New(),
		newFactory: func(m *metrics.Metrics) provider.Factory {
			return cloudflare.Factory(m)
		},
	}
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return newRootCommand(newApp()).ExecuteContext(ctx)
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cfdns",
		Short:         "Keep Cloudflare DNS records pointed at local interface addresses",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: platform config dir, or $CFDNS_CONFIG)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, off")

	root.AddCommand(
		newShowCommand(a),
		newSyncCommand(a),
		newHistoryCommand(a),
		newVersionCommand(a),
	)
	return root
}

// load reads the configuration and sets up logging from it.
func (a *app) load(ctx context.Context) (*config.Config, error) {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(ctx, a.fs); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(a.fs, path)
	if err != nil {
		return nil, err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Env, cfg.Log.File)
	return cfg, nil
}

func (a *app) assemble(ctx context.Context, cfg *config.Config, opts reconcile.Options) ([]*reconcile.Watcher, error) {
	assembler := &reconcile.Assembler{
		NewClient: a.newFactory(opts.Metrics),
		Source:    a.source,
		Options:   opts,
	}
	return assembler.Assemble(ctx, cfg)
}

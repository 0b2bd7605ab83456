package command

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/ndaify-go/internal/cli/config"
	"github.com/yndnr/ndaify-go/internal/cli/connection"
	"github.com/yndnr/ndaify-go/internal/cli/output"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/core/service"
	"github.com/yndnr/ndaify-go/internal/infra/tlsroots"
	"github.com/yndnr/ndaify-go/internal/storage"
	"github.com/yndnr/ndaify-go/internal/storage/cache"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

const runtimeKey = "runtime"

// Runtime holds what commands share during one invocation. The store and
// client are opened on first use so commands such as version never touch
// the store.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	Overrides  map[string]any
	Log        logger.Logger
	Metrics    *metric.Registry
	Bus        *router.Bus
	Out        io.Writer
	Format     output.Format
	Wide       bool

	settings   *storage.Settings
	dispatcher *connection.Dispatcher
	client     *service.Client
}

func newRuntime(c *cli.Context) (*Runtime, error) {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}
	overrides := flagOverrides(c)
	cfg, err := config.Load(path, overrides)
	if err != nil {
		return nil, err
	}

	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: errOut})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	logger.SetDefault(log)

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	return &Runtime{
		Config:     cfg,
		ConfigPath: path,
		Overrides:  overrides,
		Log:        log,
		Metrics:    metric.NewRegistry(),
		Bus:        router.NewBus(),
		Out:        out,
		Format:     format,
		Wide:       c.Bool("wide"),
	}, nil
}

func runtimeFrom(c *cli.Context) (*Runtime, error) {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok {
		return nil, errors.New("command runtime not initialized")
	}
	return rt, nil
}

// Settings opens the settings store.
func (rt *Runtime) Settings() (*storage.Settings, error) {
	if rt.settings != nil {
		return rt.settings, nil
	}
	s, err := storage.OpenSettings(rt.Config.Store.Dir, rt.Config.Store.EncryptionKey, rt.Log, rt.Metrics)
	if err != nil {
		return nil, fmt.Errorf("open settings store: %w", err)
	}
	rt.settings = s
	return s, nil
}

// Dispatcher returns the API dispatcher. Session redirects go to Bus.
func (rt *Runtime) Dispatcher() (*connection.Dispatcher, error) {
	if rt.dispatcher != nil {
		return rt.dispatcher, nil
	}
	tlsConfig, err := tlsroots.ClientConfig(rt.Config.API.CAFile)
	if err != nil {
		return nil, fmt.Errorf("load ca bundle: %w", err)
	}
	rt.dispatcher = connection.NewDispatcher(connection.Config{
		BaseURL:   rt.Config.API.BaseURL,
		Timeout:   rt.Config.API.Timeout,
		TLSConfig: tlsConfig,
		RateLimit: rt.Config.API.RateLimit,
		RateBurst: rt.Config.API.RateBurst,
		Navigator: rt.Bus,
		Logger:    rt.Log,
		Metrics:   rt.Metrics,
	})
	return rt.dispatcher, nil
}

// Client returns the service client backed by the settings store.
func (rt *Runtime) Client() (*service.Client, error) {
	if rt.client != nil {
		return rt.client, nil
	}
	settings, err := rt.Settings()
	if err != nil {
		return nil, err
	}
	d, err := rt.Dispatcher()
	if err != nil {
		return nil, err
	}
	caches := cache.NewManager(
		cache.WithStaleAfter(rt.Config.Cache.StaleAfter),
		cache.WithMetrics(rt.Metrics),
	)
	rt.client = service.NewClient(d, settings,
		service.WithCacheManager(caches),
		service.WithLogger(rt.Log),
	)
	return rt.client, nil
}

// Print renders data in the configured format.
func (rt *Runtime) Print(data any) error {
	return output.NewFormatter(rt.Format, rt.Wide).Format(rt.Out, data)
}

// Close releases the settings store.
func (rt *Runtime) Close() error {
	if rt.settings == nil {
		return nil
	}
	err := rt.settings.Close()
	rt.settings = nil
	rt.client = nil
	return err
}

// clientFrom is the usual prologue of an API command.
func clientFrom(c *cli.Context) (*Runtime, *service.Client, error) {
	rt, err := runtimeFrom(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := rt.Client()
	if err != nil {
		return nil, nil, err
	}
	return rt, client, nil
}

package command

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/ndaify-go/internal/cli/config"
	"github.com/yndnr/ndaify-go/internal/cli/repl"
	"github.com/yndnr/ndaify-go/internal/cli/router"
	"github.com/yndnr/ndaify-go/internal/cli/screen"
	"github.com/yndnr/ndaify-go/internal/infra/confloader"
	"github.com/yndnr/ndaify-go/internal/infra/shutdown"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
)

// ShellCommand starts the interactive shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start the interactive shell",
		Action: shellRun,
	}
}

func shellRun(c *cli.Context) error {
	rt, client, err := clientFrom(c)
	if err != nil {
		return err
	}
	log := rt.Log.With("component", "shell")

	ctx, stop := shutdown.NotifyContext(c.Context)
	defer stop()
	hooks := shutdown.NewHandler(5 * time.Second)

	out := repl.SyncWriter(rt.Out)
	r := router.New(router.WithLogger(rt.Log), router.WithMetrics(rt.Metrics))

	history := repl.NewHistory(rt.Config.Shell.HistoryFile)
	if err := history.Load(); err != nil {
		log.Warn("could not load history", "error", err)
	}
	hooks.OnShutdown(func(context.Context) error { return history.Save() })

	screens := screen.NewSet(&screen.Env{
		Client:          client,
		Router:          r,
		Out:             out,
		Secrets:         repl.TerminalSecrets{In: os.Stdin, Out: out},
		TransitionDelay: rt.Config.Shell.TransitionDelay,
		PageSize:        rt.Config.Shell.PageSize,
		Log:             rt.Log,
	})
	if err := screens.Register(r); err != nil {
		return err
	}

	if addr := rt.Config.Shell.MetricsAddr; addr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := rt.Metrics.Serve(metricsCtx, addr); err != nil {
				log.Warn("metrics endpoint stopped", "addr", addr, "error", err)
			}
		}()
		hooks.OnShutdown(func(context.Context) error {
			cancel()
			<-done
			return nil
		})
		log.Info("serving metrics", "addr", addr)
	}

	watchConfig(rt, hooks, log)

	sh := repl.New(repl.Config{
		In:           os.Stdin,
		Out:          out,
		Screens:      screens,
		Router:       r,
		Bus:          rt.Bus,
		History:      history,
		PollInterval: rt.Config.Shell.PollInterval,
		Animate:      term.IsTerminal(int(os.Stdout.Fd())),
		Log:          rt.Log,
	})
	runErr := sh.Run(ctx)
	return errors.Join(runErr, hooks.Shutdown())
}

// watchConfig applies log level changes of the configuration file while
// the shell runs. Other settings take effect on the next start.
func watchConfig(rt *Runtime, hooks *shutdown.Handler, log logger.Logger) {
	w, err := confloader.NewWatcher(rt.ConfigPath, confloader.WithWatcherLogger(log))
	if err != nil {
		log.Debug("configuration watcher disabled", "path", rt.ConfigPath, "error", err)
		return
	}
	w.OnChange(func(path string) {
		cfg, err := config.Load(path, rt.Overrides)
		if err != nil {
			log.Warn("ignoring invalid configuration", "path", path, "error", err)
			return
		}
		if cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	w.StartAsync()
	hooks.OnShutdown(func(context.Context) error { return w.Stop() })
}

package client

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/tableclient/internal/tablestate"
	"github.com/lox/tableclient/internal/transport"
	"github.com/lox/tableclient/internal/tui"
	"github.com/lox/tableclient/internal/view"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
)

// NewLogger creates the root logger at the configured level
func NewLogger(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
	}), nil
}

// App wires the transport, the table state controller and the session
// that feeds one into the other
type App struct {
	Transport  *transport.Client
	Controller *tablestate.Controller
	Session    *Session
}

// NewApp creates an unstarted client for cfg
func NewApp(cfg *ClientConfig, clock quartz.Clock, logger *log.Logger) (*App, error) {
	tc, err := transport.New(cfg.TransportConfig(), clock, logger)
	if err != nil {
		return nil, err
	}

	controller := tablestate.NewController(tc, clock, logger)

	return &App{
		Transport:  tc,
		Controller: controller,
		Session:    NewSession(tc, controller, logger),
	}, nil
}

// Run runs the transport and session alongside front, a renderer that owns
// the foreground. Everything stops when front returns or ctx is cancelled.
func (a *App) Run(ctx context.Context, front func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Transport.Run(gctx)
	})

	g.Go(func() error {
		return a.Session.Run(gctx)
	})

	g.Go(func() error {
		err := front(gctx)
		if err == nil {
			cancel()
		}
		return err
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunInteractive plays at the table through the terminal UI
func RunInteractive(ctx context.Context, cfg *ClientConfig, logger *log.Logger) error {
	app, err := NewApp(cfg, quartz.NewReal(), logger)
	if err != nil {
		return err
	}
	app.Session.SetAutoJoin(cfg.Player.Name)

	logger.Info("Starting table client",
		"server", cfg.Server.URL,
		"player", cfg.Player.Name,
		"client", app.Transport.ID())

	model := tui.NewTUIModel(app.Controller, logger)

	return app.Run(ctx, func(ctx context.Context) error {
		program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}

// RunWatch follows the table without joining and writes a line to out
// whenever the rendered table or the current message changes. It returns
// once reconnecting has failed for good.
func RunWatch(ctx context.Context, cfg *ClientConfig, logger *log.Logger, out io.Writer) error {
	app, err := NewApp(cfg, quartz.NewReal(), logger)
	if err != nil {
		return err
	}

	logger.Info("Watching table", "server", cfg.Server.URL, "client", app.Transport.ID())

	return app.Run(ctx, func(ctx context.Context) error {
		return Watch(ctx, app.Controller, out)
	})
}

// Watch writes table summaries and messages from controller to out until
// ctx is done or the connection has failed permanently
func Watch(ctx context.Context, controller *tablestate.Controller, out io.Writer) error {
	changed := make(chan struct{}, 1)
	controller.OnChange(func(tablestate.State) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	w := &watcher{out: out, output: termenv.NewOutput(out)}
	for {
		state := controller.State()
		if err := w.write(state); err != nil {
			return err
		}
		if state.Connection == tablestate.Failed {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return nil
		}
	}
}

type watcher struct {
	out    io.Writer
	output *termenv.Output

	status  string
	summary string
	notice  string
}

func (w *watcher) write(state tablestate.State) error {
	v := view.Render(state)

	if v.Status != w.status {
		w.status = v.Status
		if err := w.line(w.output.String("* " + v.Status).Faint()); err != nil {
			return err
		}
	}

	if summary := v.Summary(); summary != w.summary {
		w.summary = summary
		if err := w.line(w.output.String(summary)); err != nil {
			return err
		}
	}

	notice := ""
	if v.Notice != nil {
		notice = v.Notice.Text
	}
	if notice != w.notice {
		w.notice = notice
		if notice != "" {
			style := w.output.String("! " + notice).Foreground(w.output.Color("#FFEAA7"))
			if v.Notice.IsError {
				style = w.output.String("! " + notice).Foreground(w.output.Color("#FF6B6B"))
			}
			if err := w.line(style); err != nil {
				return err
			}
		}
	}

	return nil
}

func (w *watcher) line(s termenv.Style) error {
	_, err := fmt.Fprintln(w.out, s.String())
	return err
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/idilsaglam/backlog/internal/api"
	"github.com/idilsaglam/backlog/internal/backlog"
	"github.com/idilsaglam/backlog/internal/config"
	"github.com/idilsaglam/backlog/internal/logging"
	"github.com/idilsaglam/backlog/internal/model"
	"github.com/idilsaglam/backlog/internal/session"
	"github.com/idilsaglam/backlog/internal/store/jsonstore"
	"github.com/idilsaglam/backlog/internal/tui"
	"github.com/idilsaglam/backlog/internal/ui"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// Options override what the command line would otherwise load from disk.
// Zero values mean "use the configured default".
type Options struct {
	Config *config.Config
	Store  jsonstore.Store
	Logger *logging.Logger
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
}

// app is the wiring shared by every command. It is filled in lazily by setup so
// that --config is honored.
type app struct {
	opts Options
	in   *bufio.Reader
	// term reads from an interactive terminal; nil when input is piped.
	term   func(label string, secret bool) (string, error)
	out    io.Writer
	errOut io.Writer

	configPath string
	cfg        *config.Config
	log        *logging.Logger
	store      jsonstore.Store
	client     *api.Client
	sessions   *session.Cache
}

func newApp(opts Options) *app {
	a := &app{opts: opts, out: opts.Out, errOut: opts.Err}
	if a.out == nil {
		a.out = os.Stdout
	}
	if a.errOut == nil {
		a.errOut = os.Stderr
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
		if isattyFd(os.Stdin.Fd()) {
			a.term = tui.Prompt
		}
	}
	a.in = bufio.NewReader(in)
	return a
}

func (a *app) setup() error {
	if a.cfg != nil {
		return nil
	}
	cfg := a.opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(a.configPath); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	a.cfg = cfg
	ui.SetTheme(cfg.UI.Theme)

	a.log = a.opts.Logger
	if a.log == nil {
		log, err := logging.New(cfg.Log)
		if err != nil {
			// logging is best effort; the command still runs
			fmt.Fprintln(a.errOut, ui.Current().Muted.Render("logging disabled: "+err.Error()))
			log = logging.NewNop()
		}
		a.log = log
	}

	a.store = a.opts.Store
	if a.store == nil {
		a.store = jsonstore.NewFileStore(cfg.Store.Path)
	}
	a.client = api.New(cfg.API, a.log)
	a.sessions = session.New(a.store, a.client, a.log)
	return nil
}

func (a *app) close() {
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// requireSession returns the cached identity or a usage error telling the user to log in.
func (a *app) requireSession(ctx context.Context) (context.Context, *model.Session, error) {
	s, err := a.sessions.Current(ctx)
	if err != nil {
		return ctx, nil, fmt.Errorf("read session: %w", err)
	}
	if s == nil {
		return ctx, nil, usagef("not logged in. Run: backlog login")
	}
	return logging.WithUserID(ctx, s.UserID), s, nil
}

// loadList fetches the user's backlog into a reorderable list.
func (a *app) loadList(ctx context.Context, s *model.Session) (*backlog.List, error) {
	l := backlog.NewList(a.client, s.UserID, a.log)
	if err := l.Load(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

// watchSession returns a channel closed once the cached session disappears, such
// as after `backlog logout` in another terminal. Nil when the store cannot be watched.
func (a *app) watchSession(ctx context.Context) <-chan struct{} {
	fs, ok := a.store.(*jsonstore.FileStore)
	if !ok {
		return nil
	}
	ended := make(chan struct{})
	var once sync.Once
	err := fs.Watch(ctx, func() {
		if s, err := a.sessions.Current(ctx); err == nil && s == nil {
			once.Do(func() { close(ended) })
		}
	})
	if err != nil {
		a.log.Warn(ctx, "session watch disabled", zap.Error(err))
		return nil
	}
	return ended
}

// runTUI opens the interactive backlog until the user quits or logs out elsewhere.
func (a *app) runTUI(ctx context.Context, l *backlog.List, s *model.Session) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return tui.Run(ctx, l, s.DisplayName, a.log, a.watchSession(ctx))
}

// prompt reads one line from the input. A non-empty current value is returned as is.
func (a *app) prompt(label, current string) (string, error) {
	return a.ask(label, current, false)
}

// promptSecret is prompt for passwords: on a terminal the typed text is masked.
func (a *app) promptSecret(label, current string) (string, error) {
	return a.ask(label, current, true)
}

func (a *app) ask(label, current string, secret bool) (string, error) {
	if current != "" {
		return current, nil
	}
	if a.term != nil {
		v, err := a.term(label, secret)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return v, nil
	}
	fmt.Fprint(a.out, label+": ")
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) ok(msg string)    { ui.OK(a.out, msg) }
func (a *app) muted(msg string) { fmt.Fprintln(a.out, ui.Current().Muted.Render(msg)) }

func isattyFd(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

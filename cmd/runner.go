package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/musicbox/internal/api"
	"github.com/desertthunder/musicbox/internal/notify"
	"github.com/desertthunder/musicbox/internal/player"
	"github.com/desertthunder/musicbox/internal/session"
	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/storage"
	"github.com/desertthunder/musicbox/internal/tasks"
	"github.com/desertthunder/musicbox/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config       *shared.Config
	configPath   string
	store        storage.Store
	client       *api.Client
	session      *session.Manager
	bus          *notify.Bus
	engine       *tasks.UploadEngine
	httpClient   *http.Client
	// streamClient fetches audio and has no overall timeout.
	streamClient *http.Client
	getenv       func(string) string
	logger       *log.Logger
	output       io.Writer
	loadOnce     sync.Once
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config       *shared.Config
	ConfigPath   string
	Store        storage.Store
	HTTPClient   *http.Client
	// StreamClient is used for audio streams; nil uses [player.NewStreamClient].
	StreamClient *http.Client
	Getenv       func(string) string
	Logger       *log.Logger
	Output       io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}
	if opts.StreamClient == nil {
		opts.StreamClient = player.NewStreamClient()
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}

	r := &Runner{
		config:       opts.Config,
		configPath:   opts.ConfigPath,
		store:        opts.Store,
		httpClient:   opts.HTTPClient,
		streamClient: opts.StreamClient,
		getenv:       opts.Getenv,
		output:       opts.Output,
	}
	r.wire(opts.Logger)
	return r
}

// wire builds the API client and state objects around logger.
func (r *Runner) wire(logger *log.Logger) {
	r.logger = logger
	r.client = api.NewClient(r.config.API, r.httpClient, logger).WithEnv(r.getenv)
	r.session = session.New(r.client, r.store, logger)
	r.bus = notify.NewBus(r.config.Notifications.TTL(), logger)
	r.engine = tasks.NewUploadEngine(r.client, logger)
}

// SetLogger replaces the logger, rebuilding the state objects that hold it.
//
// Only valid before the session is loaded.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.wire(logger)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, registerCommand, loginCommand, logoutCommand, statusCommand,
		songsCommand, playCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadSession reads the persisted session once per process.
func (r *Runner) loadSession(ctx context.Context) {
	r.loadOnce.Do(func() { r.session.Load(ctx) })
}

// requireSession loads the session and applies the route guard, returning the bearer token.
func (r *Runner) requireSession(ctx context.Context) (string, error) {
	r.loadSession(ctx)
	if err := ui.RequireSession(r.session.Session()); err != nil {
		return "", fmt.Errorf("%w: run 'musicbox login' first", err)
	}
	return r.session.Token(), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/tvkeep/tvkeep/internal/services"
	"github.com/tvkeep/tvkeep/internal/shared"
	"github.com/tvkeep/tvkeep/internal/store"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	store  *store.Store
	impex  *services.ImportExportService
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
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

	r := &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
	r.rebuild()
	return r
}

// rebuild reconstructs the store and services from the current config.
func (r *Runner) rebuild() {
	r.store = store.New(r.config, r.logger)
	r.impex = services.NewImportExportService(r.store, r.logger)
}

// configure applies a command's --config and --db flags before the action runs.
func (r *Runner) configure(cmd *cli.Command) {
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err := shared.LoadConfig(path); err == nil {
				r.config = config
			} else {
				r.logger.Warn("failed to load config, keeping current settings", "path", path, "error", err)
			}
		}
	}
	if dbPath := cmd.String("db"); dbPath != "" {
		r.config.Database.Path = dbPath
	}
	r.rebuild()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, userCommand, progressCommand, playlistCommand, tabCommand, metaCommand, templateCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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
	return r.writePlain(format+"\n", args...)
}

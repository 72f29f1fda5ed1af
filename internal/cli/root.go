// Package cli implements the formguard command: interactive contact and
// quote forms in the terminal, plus small admin commands for the limiter,
// the lead log, the booking embed and the city lookup endpoint.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formguard"
	"github.com/goliatone/go-formguard/internal/prompt"
	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/logger"
)

// App carries the process wide dependencies. Zero fields fall back to the
// terminal and the OS.
type App struct {
	Driver  prompt.Driver
	Out     io.Writer
	Err     io.Writer
	Options []formguard.Option

	configPath string
	logLevel   string
	logJSON    bool

	cfg *config.Config
	log logger.Logger
	svc *formguard.Service
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

func (a *App) driver() prompt.Driver {
	if a.Driver == nil {
		a.Driver = prompt.NewSurvey(a.out())
	}
	return a.Driver
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out(), format, args...)
}

// NewRootCmd builds the command tree around app.
func NewRootCmd(app *App) *cobra.Command {
	if app == nil {
		app = &App{}
	}

	root := &cobra.Command{
		Use:           "formguard",
		Short:         "Guarded contact and quote forms for the cleaning business site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return app.teardown()
		},
	}
	root.SetOut(app.out())
	if app.Err != nil {
		root.SetErr(app.Err)
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&app.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")
	flags.BoolVar(&app.logJSON, "log-json", false, "Emit JSON logs")

	root.AddCommand(
		contactCmd(app),
		quoteCmd(app),
		limitCmd(app),
		leadsCmd(app),
		embedCmd(app),
		citiesCmd(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = string(logger.ParseLevel(a.logLevel))
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = a.logJSON
	}

	logOut := a.Err
	if logOut == nil {
		logOut = os.Stderr
	}
	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Output: logOut,
		JSON:   cfg.Log.JSON,
	})

	opts := append([]formguard.Option{formguard.WithLogger(a.log)}, a.Options...)
	svc, err := formguard.New(cfg, opts...)
	if err != nil {
		return err
	}
	a.svc = svc
	a.log.Debug("service ready", "command", cmd.CommandPath())
	return nil
}

func (a *App) teardown() error {
	if a.svc == nil {
		return nil
	}
	err := a.svc.Close()
	a.svc = nil
	return err
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	app := &App{}
	root := NewRootCmd(app)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		_ = app.teardown()
		if errors.Is(err, prompt.ErrAborted) || errors.Is(err, context.Canceled) {
			return 130
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

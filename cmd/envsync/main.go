package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"envsync/internal/application/dto"
	"envsync/internal/application/service"
	"envsync/internal/config"
	"envsync/internal/domain/envvar"
	"envsync/internal/domain/events"
	"envsync/internal/infrastructure/convex"
	"envsync/internal/infrastructure/envfile"
	"envsync/internal/infrastructure/vercel"
	"envsync/internal/observability"
	"envsync/internal/presentation/console"

	"github.com/rs/zerolog"
)

const usage = `Usage: envsync <vercel|convex> [options]

Reconciles a provider's environment variables with a .env file or stdin.
Variables missing from the input are removed from the selected scope.

Options:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, config.EnvFromOS())
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code
func run(ctx context.Context, args []string, stdin *os.File, stdout, stderr io.Writer, env config.Env) int {
	flags, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		printError(stderr, err)
		return 1
	}

	cfg, err := config.Load(flags, env, config.Options{})
	if err != nil {
		printError(stderr, err)
		return 1
	}

	runID := events.NewRunID()
	logger := observability.InitLogger("envsync", observability.NewLogConfig(cfg.Log.Level, cfg.Log.NoColor, cfg.Log.Verbose)).
		With().Str("run", runID).Logger()
	logger.Debug().Str("provider", cfg.Provider).Str("scope", cfg.Scope()).Bool("dry_run", cfg.DryRun).Msg("starting")

	desired, err := loadDesired(cfg, stdin)
	if err != nil {
		printError(stderr, err)
		return 1
	}
	logger.Debug().Int("variables", desired.Len()).Msg("desired set loaded")

	provider, err := newProvider(cfg, logger)
	if err != nil {
		printError(stderr, err)
		return 1
	}

	dispatcher := events.NewDispatcher()
	if !cfg.JSON {
		console.NewProgressPrinter(stdout).Register(dispatcher)
	}

	var confirmer service.Confirmer
	if cfg.Confirm && !cfg.DryRun {
		confirmer = console.NewTerminalPrompter(stdin, cfg.Source.Stdin, stdout)
	}

	svc := service.NewSyncService(provider, confirmer, dispatcher, logger, runID)
	resp, err := svc.Run(ctx, &dto.SyncRequest{
		Desired: desired,
		Scope:   cfg.Scope(),
		Confirm: cfg.Confirm,
		DryRun:  cfg.DryRun,
	})
	if err != nil {
		printError(stderr, err)
		return 1
	}

	if cfg.JSON {
		if err := console.RenderJSON(stdout, resp); err != nil {
			printError(stderr, err)
			return 1
		}
		return 0
	}
	console.RenderSummary(stdout, resp)
	return 0
}

func parseFlags(args []string, stderr io.Writer) (config.Flags, error) {
	var f config.Flags

	fs := flag.NewFlagSet("envsync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&f.Project, "project", "", "Vercel project id or name (default: .vercel/project.json)")
	fs.StringVar(&f.Team, "team", "", "Vercel team id")
	fs.StringVar(&f.Token, "token", "", "Vercel token or Convex deploy key")
	fs.StringVar(&f.File, "file", "", "source file (default: "+envfile.DefaultPath+")")
	fs.StringVar(&f.Target, "target", "", "Vercel target or custom environment (default: production)")
	fs.StringVar(&f.Deployment, "deployment", "", "Convex deployment name (default: the configured deployment)")
	fs.StringVar(&f.ConfigPath, "config", "", "config file (default: "+config.DefaultConfigPath+")")
	fs.BoolVar(&f.Stdin, "stdin", false, "read variables from stdin instead of a file")
	fs.BoolVar(&f.Yes, "yes", false, "apply without asking for confirmation")
	fs.BoolVar(&f.DryRun, "dry-run", false, "show the plan without changing anything")
	fs.BoolVar(&f.JSON, "json", false, "print the result as JSON")
	fs.BoolVar(&f.Verbose, "verbose", false, "enable debug logging")
	fs.DurationVar(&f.Timeout, "timeout", 0, "timeout for each remote call (default: 30s)")

	// the provider may come before or after the options
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		f.Provider = args[0]
		args = args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return f, err
	}

	rest := fs.Args()
	if f.Provider == "" && len(rest) > 0 {
		f.Provider = rest[0]
		if err := fs.Parse(rest[1:]); err != nil {
			return f, err
		}
		rest = fs.Args()
	}
	if len(rest) > 0 {
		return f, envvar.ErrConfiguration(
			fmt.Sprintf("unexpected argument %q", rest[0]),
			"usage: envsync <vercel|convex> [options]",
		)
	}
	return f, nil
}

func loadDesired(cfg *config.Config, stdin io.Reader) (envvar.DesiredSet, error) {
	loader := envfile.NewLoader(stdin)
	if cfg.Source.Stdin {
		return loader.LoadStdin()
	}
	return loader.LoadFile(cfg.Source.File)
}

func newProvider(cfg *config.Config, logger zerolog.Logger) (envvar.Provider, error) {
	switch cfg.Provider {
	case config.ProviderVercel:
		opts := []vercel.Option{vercel.WithTimeout(cfg.Timeout)}
		if cfg.Vercel.APIBaseURL != "" {
			opts = append(opts, vercel.WithBaseURL(cfg.Vercel.APIBaseURL))
		}
		if cfg.Vercel.Team != "" {
			opts = append(opts, vercel.WithTeamID(cfg.Vercel.Team))
		}
		logger.Debug().Str("project", cfg.Vercel.Project).Str("team", cfg.Vercel.Team).Msg("using vercel")
		return vercel.NewProvider(vercel.NewClient(cfg.Vercel.Token, opts...), cfg.Vercel.Project), nil
	case config.ProviderConvex:
		runner, err := convex.NewExecRunner(cfg.Convex.Command, "", cfg.Timeout)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("deployment", cfg.Convex.Deployment).Msg("using convex")
		return convex.NewProvider(runner, cfg.Convex.DeployKey), nil
	default:
		return nil, envvar.ErrConfiguration(fmt.Sprintf("unknown provider %q", cfg.Provider), "")
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	if hint := envvar.HintOf(err); hint != "" {
		fmt.Fprintf(w, "hint: %s\n", hint)
	}
}

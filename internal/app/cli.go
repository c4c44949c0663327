package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	config "sapling-unit/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// keepLogEnv keeps the per-run log file instead of deleting it on exit.
const keepLogEnv = config.EnvPrefix + "_KEEP_LOG"

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

type cliOptions struct {
	Rev           string
	VCS           string
	Repo          string
	Runner        string
	Jobs          int
	MaxInterrupts int
	List          bool

	Cleanup    bool
	Version    bool
	ConfigFile string
}

func run() int {
	cmd := newRootCommand()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		var ee exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	name := currentToolName()
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [flags] [output.json]", name),
		Short:         "Run the tests relevant to the current change",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Version {
				fmt.Printf("%s version %s\n", name, version)
				return nil
			}
			if opts.Cleanup {
				return codeResult(runCleanupMode())
			}

			exitCode := runWithLoggerAndCleanup(func() int {
				v, err := config.NewViper(opts.ConfigFile)
				if err != nil {
					logError(err.Error())
					return 1
				}

				logInfo("Script started")

				cfg, err := buildConfig(cmd, args, opts, v)
				if err != nil {
					logError(err.Error())
					return 1
				}
				logInfo(fmt.Sprintf("Parsed args: vcs=%s, rev=%q, repo=%q, output=%q", cfg.VCS, cfg.Rev, cfg.RepoRoot, cfg.OutputPath))
				return runUnit(context.Background(), cfg)
			})

			return codeResult(exitCode)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	addRootFlags(cmd.Flags(), opts)
	cmd.AddCommand(newVersionCommand(name), newCleanupCommand())

	return cmd
}

func addRootFlags(fs *pflag.FlagSet, opts *cliOptions) {
	fs.StringVar(&opts.ConfigFile, "config", "", "Config file path (default: $HOME/.sapling-unit/config.*)")
	fs.BoolVarP(&opts.Version, "version", "v", false, "Print version and exit")
	fs.BoolVar(&opts.Cleanup, "cleanup", false, "Clean up old logs and exit")

	fs.StringVarP(&opts.Rev, "rev", "r", "", "Revision set whose changes select tests (default depends on --vcs)")
	fs.StringVar(&opts.VCS, "vcs", "hg", "Version control tool (hg, sl, git)")
	fs.StringVar(&opts.Repo, "repo", "", "Repository root (default: asked from the VCS)")
	fs.StringVar(&opts.Runner, "runner", "", "Test runner path (also via "+config.RunnerEnv+")")
	fs.IntVarP(&opts.Jobs, "jobs", "j", 0, "Parallel test jobs (default: number of CPUs)")
	fs.IntVar(&opts.MaxInterrupts, "max-interrupts", config.DefaultMaxInterrupts, "Interrupts tolerated before giving up on the runner")
	fs.BoolVarP(&opts.List, "list", "l", false, "Print the selected tests and exit without running them")
}

// codeResult turns an exit code into a RunE result.
func codeResult(code int) error {
	if code == 0 {
		return nil
	}
	return exitError{code: code}
}

func newVersionCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print version and exit",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("%s version %s\n", name, version)
			return nil
		},
	}
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "cleanup",
		Short:         "Delete log files left behind by earlier runs",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return codeResult(runCleanupMode())
		},
	}
}

// runWithLoggerAndCleanup runs fn with a fresh per-process log. On a non-zero
// exit the latest warnings and errors are echoed to stderr. The log file is
// removed afterwards unless SAPLING_UNIT_KEEP_LOG is set.
func runWithLoggerAndCleanup(fn func() int) (exitCode int) {
	logger, err := NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to initialize logger: %v\n", err)
		return 1
	}
	setLogger(logger)

	defer func() {
		logger.Flush()
		if err := closeLogger(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to close logger: %v\n", err)
		}

		keep := config.EnvFlagEnabled(keepLogEnv)
		if exitCode != 0 {
			printRecentErrors(logger, keep)
		}
		if !keep {
			_ = logger.RemoveLogFile()
		}
	}()
	defer runCleanupHook()

	scheduleStartupCleanup()
	return fn()
}

func printRecentErrors(logger *Logger, kept bool) {
	entries := logger.ExtractRecentErrors(10)
	if len(entries) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "\n=== Recent Errors ===")
	for _, entry := range entries {
		fmt.Fprintln(os.Stderr, entry)
	}
	status := " (deleted)"
	if kept {
		status = ""
	}
	fmt.Fprintf(os.Stderr, "Log file: %s%s\n", logger.Path(), status)
}

func parseArgs() (*config.Config, error) {
	opts := &cliOptions{}
	cmd := &cobra.Command{SilenceErrors: true, SilenceUsage: true, Args: cobra.MaximumNArgs(1)}
	addRootFlags(cmd.Flags(), opts)

	if err := cmd.ParseFlags(os.Args[1:]); err != nil {
		return nil, err
	}
	args := cmd.Flags().Args()
	if err := cmd.ValidateArgs(args); err != nil {
		return nil, err
	}

	v, err := config.NewViper(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	return buildConfig(cmd, args, opts, v)
}

// buildConfig merges flags, SAPLING_UNIT_* env and the config file; an
// explicitly set flag always wins. The repository root may still be empty
// here and is resolved by runUnit.
func buildConfig(cmd *cobra.Command, args []string, opts *cliOptions, v *viper.Viper) (*config.Config, error) {
	flags := cmd.Flags()

	stringSetting := func(flag, value string) (string, error) {
		if flags.Changed(flag) {
			value = strings.TrimSpace(value)
			if value == "" {
				return "", fmt.Errorf("--%s flag requires a value", flag)
			}
			return value, nil
		}
		return strings.TrimSpace(v.GetString(flag)), nil
	}

	cfg := &config.Config{}
	var err error
	if cfg.VCS, err = stringSetting("vcs", opts.VCS); err != nil {
		return nil, err
	}
	if cfg.Rev, err = stringSetting("rev", opts.Rev); err != nil {
		return nil, err
	}
	if cfg.RepoRoot, err = stringSetting("repo", opts.Repo); err != nil {
		return nil, err
	}
	if cfg.Runner, err = stringSetting("runner", opts.Runner); err != nil {
		return nil, err
	}

	if flags.Changed("jobs") {
		cfg.Jobs = opts.Jobs
	} else {
		cfg.Jobs = v.GetInt("jobs")
	}
	if flags.Changed("max-interrupts") {
		cfg.MaxInterrupts = opts.MaxInterrupts
	} else {
		cfg.MaxInterrupts = v.GetInt("max-interrupts")
	}
	if flags.Changed("list") {
		cfg.ListOnly = opts.List
	} else {
		cfg.ListOnly = v.GetBool("list")
	}

	if len(args) > 1 {
		return nil, fmt.Errorf("at most one output path is accepted, got %d arguments", len(args))
	}
	if len(args) == 1 {
		cfg.OutputPath = args[0]
	}
	if cfg.OutputPath == "-" {
		return nil, fmt.Errorf("invalid output path: '-' is not a valid file path")
	}
	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("--jobs must not be negative, got %d", cfg.Jobs)
	}
	if cfg.MaxInterrupts < 1 {
		return nil, fmt.Errorf("--max-interrupts must be at least 1, got %d", cfg.MaxInterrupts)
	}

	return cfg, nil
}

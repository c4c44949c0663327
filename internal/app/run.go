package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	config "sapling-unit/internal/config"
	executor "sapling-unit/internal/executor"
	report "sapling-unit/internal/report"
	selector "sapling-unit/internal/selector"
	"sapling-unit/internal/utils"
	"sapling-unit/internal/vcs"
)

var (
	stdoutWriter io.Writer = os.Stdout

	selectVCSFn    = vcs.Select
	repoRootFn     = vcs.Root
	changedFilesFn = vcs.ChangedFiles
	loadCatalogFn  = selector.LoadCatalog
	readRequiresFn = config.ReadRequires
	findRunnerFn   = config.FindRunner
	runRunnerFn    = executor.Run
	loadReportFn   = report.Load
	getwdFn        = os.Getwd
)

// runUnit selects the tests relevant to the change, runs them and writes the
// report. It returns the process exit code.
func runUnit(ctx context.Context, cfg *config.Config) int {
	backend, err := selectVCSFn(cfg.VCS)
	if err != nil {
		logError(err.Error())
		return 1
	}

	if err := resolveRepoRoot(ctx, cfg, backend); err != nil {
		logError(err.Error())
		return 1
	}
	if err := cfg.Validate(); err != nil {
		logError(err.Error())
		return 1
	}
	logInfo(fmt.Sprintf("Repository root: %s (vcs=%s)", cfg.RepoRoot, backend.Name()))

	catalog, err := loadCatalogFn(cfg.TestDir)
	if err != nil {
		logError(err.Error())
		return 1
	}
	changed, err := changedFilesFn(ctx, backend, cfg.RepoRoot, cfg.Rev)
	if err != nil {
		logError(err.Error())
		return 1
	}

	tests := selector.Interesting(catalog, changed, config.TestDirName).Sorted()
	logInfo(fmt.Sprintf("Selected %d of %d tests from %d changed file(s)", len(tests), len(catalog), len(changed)))

	if len(tests) == 0 {
		fmt.Fprintln(stdoutWriter, "no tests to run")
		if cfg.ListOnly {
			return 0
		}
		return writeReport(cfg.OutputPath, report.Report{}, 0)
	}

	fmt.Fprintf(stdoutWriter, "%d %s to run: %s\n", len(tests), utils.Plural(len(tests), "test"), strings.Join(tests, " "))
	if cfg.ListOnly {
		return 0
	}

	requires, err := readRequiresFn(cfg.RepoRoot)
	if err != nil {
		logError(err.Error())
		return 1
	}
	cfg.Jobs = config.ResolveJobs(cfg.Jobs)
	runner := findRunnerFn(cfg.Runner)
	spec := executor.BuildRunSpec(cfg, runner, requires, tests)
	logInfo(fmt.Sprintf("Runner: %s %s", spec.Command, strings.Join(spec.Args, " ")))

	res, err := runRunnerFn(ctx, spec)
	if err != nil {
		logError(fmt.Sprintf("Test runner: %v", err))
		if errors.Is(err, executor.ErrInterrupted) || errors.Is(err, context.Canceled) {
			return executor.InterruptedExitCode
		}
		return 1
	}

	exitCode, rep := loadReportFn(cfg.TestDir, res.ExitCode)
	logInfo(fmt.Sprintf("Runner exit code %d, final exit code %d, results: %s", res.ExitCode, exitCode, report.FormatSummary(report.Summary(rep))))
	if failed := report.Failed(rep); len(failed) > 0 {
		logWarn(fmt.Sprintf("Failed: %s", utils.SafeTruncate(strings.Join(failed, " "), 1024)))
	}

	return writeReport(cfg.OutputPath, rep, exitCode)
}

// resolveRepoRoot fills RepoRoot (asking the VCS when it wasn't configured)
// and TestDir. Both are absolute afterwards.
func resolveRepoRoot(ctx context.Context, cfg *config.Config, backend vcs.Backend) error {
	root := cfg.RepoRoot
	if root == "" {
		cwd, err := getwdFn()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		if root, err = repoRootFn(ctx, backend, cwd); err != nil {
			return err
		}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve repository root %s: %w", root, err)
	}
	cfg.RepoRoot = abs
	cfg.TestDir = filepath.Join(abs, config.TestDirName)
	return nil
}

func writeReport(path string, rep report.Report, exitCode int) int {
	if path == "" {
		return exitCode
	}
	if err := report.Write(path, rep); err != nil {
		logError(err.Error())
		return 1
	}
	logInfo(fmt.Sprintf("Report written to %s", path))
	return exitCode
}

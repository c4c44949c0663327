package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	config "sapling-unit/internal/config"
	executor "sapling-unit/internal/executor"
	report "sapling-unit/internal/report"
	"sapling-unit/internal/vcs"

	"github.com/goccy/go-json"
)

type pipelineStub struct {
	stdout  *bytes.Buffer
	changed []string
	root    string

	runnerCalls int
	spec        executor.RunSpec
	runResult   executor.RunResult
	runErr      error
	// reportBody is written to tests/report.json by the fake runner when set.
	reportBody string
}

// makeRepo lays out a repository with the given test files under tests/.
func makeRepo(t *testing.T, tests ...string) string {
	t.Helper()
	root := t.TempDir()
	testDir := filepath.Join(root, config.TestDirName)
	if err := os.MkdirAll(testDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range tests {
		if err := os.WriteFile(filepath.Join(testDir, name), []byte("#\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func installPipeline(t *testing.T, root string, changed ...string) *pipelineStub {
	t.Helper()
	stub := &pipelineStub{stdout: &bytes.Buffer{}, changed: changed, root: root}

	prevStdout := stdoutWriter
	prevRoot, prevChanged, prevRunner, prevFind := repoRootFn, changedFilesFn, runRunnerFn, findRunnerFn
	prevReport := report.SetStderr(&bytes.Buffer{})
	t.Cleanup(func() {
		stdoutWriter = prevStdout
		repoRootFn, changedFilesFn, runRunnerFn, findRunnerFn = prevRoot, prevChanged, prevRunner, prevFind
		prevReport()
	})

	stdoutWriter = stub.stdout
	repoRootFn = func(context.Context, vcs.Backend, string) (string, error) { return stub.root, nil }
	changedFilesFn = func(context.Context, vcs.Backend, string, string) ([]string, error) { return stub.changed, nil }
	findRunnerFn = func(string) string { return "/opt/hg/tests/run-tests.py" }
	runRunnerFn = func(_ context.Context, spec executor.RunSpec) (executor.RunResult, error) {
		stub.runnerCalls++
		stub.spec = spec
		if stub.reportBody != "" {
			if err := os.WriteFile(filepath.Join(spec.Dir, report.FileName), []byte(stub.reportBody), 0o644); err != nil {
				t.Errorf("write report: %v", err)
			}
		}
		return stub.runResult, stub.runErr
	}
	return stub
}

func newTestConfig(root, output string) *config.Config {
	return &config.Config{RepoRoot: root, VCS: "hg", Jobs: 4, MaxInterrupts: 3, OutputPath: output}
}

func readOutput(t *testing.T, path string) report.Report {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		t.Fatalf("decode output %q: %v", data, err)
	}
	return r
}

func TestRunUnitNoTests(t *testing.T) {
	root := makeRepo(t, "test-commit.t", "test-revert.t")
	stub := installPipeline(t, root, "README", "contrib/zsh_completion")
	out := filepath.Join(t.TempDir(), "out.json")

	if code := runUnit(context.Background(), newTestConfig(root, out)); code != 0 {
		t.Fatalf("runUnit() = %d, want 0", code)
	}
	if got := stub.stdout.String(); got != "no tests to run\n" {
		t.Fatalf("stdout = %q", got)
	}
	if stub.runnerCalls != 0 {
		t.Fatalf("runner should not be spawned")
	}
	if r := readOutput(t, out); len(r) != 0 {
		t.Fatalf("output = %v, want empty object", r)
	}
}

func TestRunUnitRunsSelectedTests(t *testing.T) {
	root := makeRepo(t, "test-commit.t", "test-commit-amend.t", "test-revert.t", "test-check-pyflakes.t")
	stub := installPipeline(t, root, "mercurial/commands.py", "hgext/amend.py")
	stub.runResult = executor.RunResult{ExitCode: 1}
	stub.reportBody = `testreport ={"test-commit-amend.t": {"result": "failure"}, "test-check-pyflakes.t": {"result": "success"}}`
	t.Setenv("PYTHONPATH", "/site")
	out := filepath.Join(t.TempDir(), "out.json")

	code := runUnit(context.Background(), newTestConfig(root, out))
	if code != 1 {
		t.Fatalf("runUnit() = %d, want runner exit code 1", code)
	}

	wantLine := "2 tests to run: test-check-pyflakes.t test-commit-amend.t\n"
	if got := stub.stdout.String(); got != wantLine {
		t.Fatalf("stdout = %q, want %q", got, wantLine)
	}

	wantArgs := []string{"-j4", "-l", "--json", "test-check-pyflakes.t", "test-commit-amend.t"}
	if !reflect.DeepEqual(stub.spec.Args, wantArgs) {
		t.Fatalf("runner args = %q, want %q", stub.spec.Args, wantArgs)
	}
	if stub.spec.Command != "/opt/hg/tests/run-tests.py" {
		t.Fatalf("runner command = %q", stub.spec.Command)
	}
	if stub.spec.Dir != filepath.Join(root, config.TestDirName) {
		t.Fatalf("runner dir = %q", stub.spec.Dir)
	}
	wantPath := "PYTHONPATH=" + root + string(os.PathListSeparator) + "/site"
	found := false
	for _, kv := range stub.spec.Env {
		if kv == wantPath {
			found = true
		}
	}
	if !found {
		t.Fatalf("runner env missing %q", wantPath)
	}

	r := readOutput(t, out)
	if r["test-commit-amend.t"].Kind() != report.ResultFailure || len(r) != 2 {
		t.Fatalf("output = %v", r)
	}
	if _, err := os.Stat(filepath.Join(root, config.TestDirName, report.FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("runner report should be consumed, stat err = %v", err)
	}
}

func TestRunUnitMissingReportForcesFailure(t *testing.T) {
	root := makeRepo(t, "test-revert.t")
	stub := installPipeline(t, root, "tests/test-revert.t")
	out := filepath.Join(t.TempDir(), "out.json")

	if code := runUnit(context.Background(), newTestConfig(root, out)); code != 1 {
		t.Fatalf("runUnit() = %d, want 1 when the report is missing", code)
	}
	if stub.stdout.String() != "1 test to run: test-revert.t\n" {
		t.Fatalf("stdout = %q", stub.stdout.String())
	}
	if r := readOutput(t, out); !reflect.DeepEqual(r, report.Failure()) {
		t.Fatalf("output = %v, want synthetic failure", r)
	}
}

func TestRunUnitLZ4Revlog(t *testing.T) {
	root := makeRepo(t, "test-revlog.t")
	if err := os.MkdirAll(filepath.Join(root, ".hg"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(config.RequiresPath(root), []byte("revlogv1\nlz4revlog\nstore\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stub := installPipeline(t, root, "mercurial/revlog.py")
	stub.reportBody = `{}`

	if code := runUnit(context.Background(), newTestConfig(root, "")); code != 0 {
		t.Fatalf("runUnit() = %d, want 0", code)
	}
	want := []string{"-j4", "-l", "--json", "--extra-config-opt=extensions.lz4revlog=", "test-revlog.t"}
	if !reflect.DeepEqual(stub.spec.Args, want) {
		t.Fatalf("runner args = %q, want %q", stub.spec.Args, want)
	}
}

func TestRunUnitInterrupted(t *testing.T) {
	root := makeRepo(t, "test-revert.t")
	stub := installPipeline(t, root, "tests/test-revert.t")
	stub.runErr = executor.ErrInterrupted
	out := filepath.Join(t.TempDir(), "out.json")

	if code := runUnit(context.Background(), newTestConfig(root, out)); code != executor.InterruptedExitCode {
		t.Fatalf("runUnit() = %d, want %d", code, executor.InterruptedExitCode)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no report should be written after giving up, stat err = %v", err)
	}
}

func TestRunUnitRunnerStartFailure(t *testing.T) {
	root := makeRepo(t, "test-revert.t")
	stub := installPipeline(t, root, "tests/test-revert.t")
	stub.runErr = errors.New("start test runner: no such file")

	if code := runUnit(context.Background(), newTestConfig(root, "")); code != 1 {
		t.Fatalf("runUnit() = %d, want 1", code)
	}
}

func TestRunUnitListOnly(t *testing.T) {
	root := makeRepo(t, "test-revert.t")
	stub := installPipeline(t, root, "mercurial/revert.py")
	out := filepath.Join(t.TempDir(), "out.json")
	cfg := newTestConfig(root, out)
	cfg.ListOnly = true

	if code := runUnit(context.Background(), cfg); code != 0 {
		t.Fatalf("runUnit() = %d, want 0", code)
	}
	if stub.runnerCalls != 0 {
		t.Fatal("list mode must not spawn the runner")
	}
	if !strings.HasPrefix(stub.stdout.String(), "1 test to run: test-revert.t") {
		t.Fatalf("stdout = %q", stub.stdout.String())
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("list mode should not write a report")
	}
}

func TestRunUnitResolvesRootFromVCS(t *testing.T) {
	root := makeRepo(t, "test-revert.t")
	installPipeline(t, root, "README")

	var askedDir string
	repoRootFn = func(_ context.Context, b vcs.Backend, dir string) (string, error) {
		if b.Name() != "hg" {
			t.Errorf("backend = %s, want hg", b.Name())
		}
		askedDir = dir
		return root, nil
	}
	prevGetwd := getwdFn
	getwdFn = func() (string, error) { return "/work/here", nil }
	t.Cleanup(func() { getwdFn = prevGetwd })

	cfg := newTestConfig("", "")
	if code := runUnit(context.Background(), cfg); code != 0 {
		t.Fatalf("runUnit() = %d, want 0", code)
	}
	if askedDir != "/work/here" {
		t.Fatalf("root query ran in %q", askedDir)
	}
	if cfg.RepoRoot != root || cfg.TestDir != filepath.Join(root, config.TestDirName) {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestRunUnitFatalErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, stub *pipelineStub, cfg *config.Config)
	}{
		{
			name: "unknown vcs",
			setup: func(t *testing.T, stub *pipelineStub, cfg *config.Config) {
				cfg.VCS = "cvs"
			},
		},
		{
			name: "vcs query fails",
			setup: func(t *testing.T, stub *pipelineStub, cfg *config.Config) {
				changedFilesFn = func(context.Context, vcs.Backend, string, string) ([]string, error) {
					return nil, &vcs.CommandError{Args: []string{"hg", "log"}, ExitCode: 255, Stderr: "abort: no repository found"}
				}
			},
		},
		{
			name: "missing test directory",
			setup: func(t *testing.T, stub *pipelineStub, cfg *config.Config) {
				cfg.RepoRoot = t.TempDir()
			},
		},
		{
			name: "root query fails",
			setup: func(t *testing.T, stub *pipelineStub, cfg *config.Config) {
				cfg.RepoRoot = ""
				repoRootFn = func(context.Context, vcs.Backend, string) (string, error) {
					return "", errors.New("not a repository")
				}
			},
		},
		{
			name: "invalid max interrupts",
			setup: func(t *testing.T, stub *pipelineStub, cfg *config.Config) {
				cfg.MaxInterrupts = 0
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := makeRepo(t, "test-revert.t")
			stub := installPipeline(t, root, "tests/test-revert.t")
			cfg := newTestConfig(root, "")
			tt.setup(t, stub, cfg)

			if code := runUnit(context.Background(), cfg); code != 1 {
				t.Fatalf("runUnit() = %d, want 1", code)
			}
			if stub.runnerCalls != 0 {
				t.Fatal("runner should not be spawned after a fatal error")
			}
		})
	}
}

// Package report reads the test runner's result file and turns it into the
// JSON report this tool emits, falling back to a synthetic failure when the
// file is missing or corrupt.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"

	ilogger "sapling-unit/internal/logger"
	"sapling-unit/internal/utils"
)

const (
	// FileName is the runner's result file inside the test directory.
	FileName = "report.json"

	// Marker some runner versions write ahead of the JSON object.
	Marker = "testreport ="

	// SyntheticKey names the placeholder entry used when no report could be read.
	SyntheticKey = "run-tests"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skip"

	previewBytes = 100
)

// Result is one test's record. Only "result" is interpreted; everything
// else the runner wrote is passed through untouched.
type Result map[string]any

// Kind returns the "result" field, or "" when it is absent or not a string.
func (r Result) Kind() string {
	s, _ := r["result"].(string)
	return s
}

// Report maps test identifiers to their result records.
type Report map[string]Result

// Failure is the report used when the runner's output can't be recovered.
func Failure() Report {
	return Report{SyntheticKey: Result{"result": ResultFailure}}
}

var stderrWriter io.Writer = os.Stderr

var removeFileFn = os.Remove

// Load reads and removes <testDir>/report.json. On any read or decode failure
// it warns, returns Failure(), and turns a zero exitCode into 1 so a run with
// no usable results never reads as a pass.
func Load(testDir string, exitCode int) (int, Report) {
	path := filepath.Join(testDir, FileName)
	r, err := read(path)
	if err != nil {
		fmt.Fprintf(stderrWriter, "warning: error reading results: %v\n", err)
		ilogger.LogWarn(fmt.Sprintf("Error reading results from %s: %v", path, err))
		if exitCode == 0 {
			exitCode = 1
		}
		return exitCode, Failure()
	}

	if err := removeFileFn(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		ilogger.LogWarn(fmt.Sprintf("Failed to remove %s: %v", path, err))
	}
	return exitCode, r
}

func read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a result file body, accepting an optional leading marker.
func Parse(data []byte) (Report, error) {
	body := bytes.TrimPrefix(data, []byte(Marker))

	var r Report
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode %s: %w (content: %s)", FileName, err, truncateBytes(bytes.TrimSpace(body), previewBytes))
	}
	if r == nil {
		return nil, fmt.Errorf("decode %s: not a JSON object", FileName)
	}
	return r, nil
}

// Write serializes r to path.
func Write(path string, r Report) error {
	if r == nil {
		r = Report{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- the report is meant to be shared
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// Summary counts results by kind. Records without a kind count as "unknown".
func Summary(r Report) map[string]int {
	counts := make(map[string]int)
	for _, res := range r {
		kind := res.Kind()
		if kind == "" {
			kind = "unknown"
		}
		counts[kind]++
	}
	return counts
}

// FormatSummary renders counts as "failure=1 success=3", sorted by kind.
func FormatSummary(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	var b bytes.Buffer
	for i, k := range kinds {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%d", k, counts[k])
	}
	return utils.SafeTruncate(b.String(), 512)
}

// Failed returns the identifiers whose result is a failure, sorted.
func Failed(r Report) []string {
	var out []string
	for name, res := range r {
		if res.Kind() == ResultFailure {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

func truncateBytes(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	if maxLen < 0 {
		return ""
	}
	return string(b[:maxLen]) + "..."
}

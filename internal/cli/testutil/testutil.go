// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/leapframe/internal/cli/output"
)

// Fixture file names created by SetupDatasets.
const (
	PeopleCSV    = "people.csv"
	EventsNDJSON = "events.ndjson"
)

// SetupDatasets creates a temporary directory with small datasets and
// returns its path.
func SetupDatasets(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	people := `id,name,score,joined
1,alice,1.5,2024-01-01
2,bob,,2024-02-15
3,carol,4.5,2024-03-30
`
	if err := os.WriteFile(filepath.Join(tmpDir, PeopleCSV), []byte(people), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", PeopleCSV, err)
	}

	events := `{"id": 1, "kind": "click", "tags": ["a", "b"]}
{"id": 2, "kind": "view", "tags": []}
`
	if err := os.WriteFile(filepath.Join(tmpDir, EventsNDJSON), []byte(events), 0644); err != nil {
		t.Fatalf("failed to create %s: %v", EventsNDJSON, err)
	}

	return tmpDir
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

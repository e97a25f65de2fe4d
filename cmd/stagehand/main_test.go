package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/stagehand/internal/app"
)

const config = `hosts: [x86_64-unknown-linux-gnu]
targets: [i686-unknown-linux-gnu]
`

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	tests := []struct {
		name         string
		args         []string
		expectedExit int
	}{
		{name: "goals", args: []string{"stagehand", "goals"}, expectedExit: 0},
		{name: "version", args: []string{"stagehand", "version"}, expectedExit: 0},
		{name: "unknown goal", args: []string{"stagehand", "build", "frobnicate"}, expectedExit: 2},
		{name: "bad stage flags", args: []string{"stagehand", "build", "--stage-flags", "x"}, expectedExit: 2},
		{name: "missing config", args: []string{"stagehand", "goals", "--config", "absent.yaml"}, expectedExit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFile(t, filepath.Join(tmpDir, "config.yaml"), config)
			writeFile(t, filepath.Join(tmpDir, "config.stamp"), "")
			t.Chdir(tmpDir)
			t.Setenv("CFG_DISABLE_MANAGE_SUBMODULES", "1")

			os.Args = tt.args
			out := new(bytes.Buffer)
			exitCode := run(func(a *app.App) {
				a.WithRoot(tmpDir).WithOutput(out, out)
			})

			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

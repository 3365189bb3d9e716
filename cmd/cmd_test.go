package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)

	for _, sub := range []string{"serve", "check-config", "listings", "run-once"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	_, _, err := execute(t, "nonexistent-command")
	assert.Error(t, err)
}

func TestCheckConfigCmd(t *testing.T) {
	tests := map[string]struct {
		content    string
		missing    bool
		wantErr    bool
		wantOut    []string
		wantStderr []string
	}{
		"valid document with filters": {
			content: `{
				"server_ip": "127.0.0.1",
				"server_port": 5000,
				"url_filters": {
					"https://www.facebook.com/marketplace/berlin/search?query=bike": {
						"level2": ["shimano"],
						"level1": ["road", "gravel"]
					}
				}
			}`,
			wantOut: []string{"is valid", "127.0.0.1:5000", "level1", "road, gravel", "level2"},
		},
		"valid document without urls": {
			content:    `{"url_filters": {}}`,
			wantOut:    []string{"is valid"},
			wantStderr: []string{"no URLs are configured"},
		},
		"invalid fields are listed": {
			content: `{
				"server_port": 0,
				"url_filters": {"not a url": {"level1": ["x"]}}
			}`,
			wantErr:    true,
			wantStderr: []string{"2 invalid field(s)", "server_port must be at least 1", "Invalid URL format: not a url"},
		},
		"missing document": {
			missing:    true,
			wantErr:    true,
			wantStderr: []string{"config.json"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if !tc.missing {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			}

			out, stderr, err := execute(t, "check-config", "--config", path)
			if tc.wantErr {
				assert.ErrorIs(t, err, errInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
			for _, want := range tc.wantOut {
				assert.Contains(t, out, want)
			}
			for _, want := range tc.wantStderr {
				assert.Contains(t, stderr, want)
			}
			if tc.missing {
				_, statErr := os.Stat(path)
				assert.True(t, os.IsNotExist(statErr), "check-config never creates the document")
			}
		})
	}
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0cc175b9", shortID("0cc175b9c0f1b6a831c399e269772661"))
	assert.Equal(t, "abc", shortID("abc"))
}

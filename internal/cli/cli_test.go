package cli

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// runRootCommand executes the root command with args and captures output.
func runRootCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	rootCmd.SetArgs(nil)
	return strings.TrimSpace(buf.String()), err
}

// setEnv sets an environment variable and restores the original value
// when the test finishes.
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	orig, had := os.LookupEnv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	})
	_ = os.Setenv(key, value)
}

// unsetEnv clears an environment variable for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	orig, had := os.LookupEnv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	})
	_ = os.Unsetenv(key)
}

// isolateHome points HOME at a temp dir so commands read and write
// config there instead of the real home directory.
func isolateHome(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	setEnv(t, "HOME", tmp)
	unsetEnv(t, "FLAGWATCH_CONFIG")
	unsetEnv(t, "FLAGWATCH_HOME")
	unsetEnv(t, "FLAGWATCH_ENV_FILE")
	return tmp
}

func TestRootHelpListsCommands(t *testing.T) {
	out, err := runRootCommand(t, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	for _, name := range []string{"update", "watch", "serve", "status", "history", "configure", "doctor", "version"} {
		if !strings.Contains(out, name) {
			t.Errorf("help output missing %q:\n%s", name, out)
		}
	}
}

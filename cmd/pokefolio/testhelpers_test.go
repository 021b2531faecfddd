package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

const upstreamCard = `{
  "id": "sv1-1",
  "name": "Sprigatito",
  "number": "13",
  "supertype": "Pokémon",
  "set": {"id": "sv1", "name": "Scarlet & Violet", "series": "Scarlet & Violet", "total": 258, "releaseDate": "2023/03/31"},
  "cardmarket": {"prices": {"lowPrice": 1.0, "trendPrice": 2.0, "avg30": 3.0}}
}`

func cardUpstream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/cards/sv1-1":
		_, _ = w.Write([]byte(`{"data": ` + upstreamCard + `}`))
	case "/cards":
		_, _ = w.Write([]byte(`{"data": [` + upstreamCard + `], "page": 1, "pageSize": 48, "count": 1, "totalCount": 1}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// setConfigFile sets the global configFile variable and registers a cleanup to restore it.
func setConfigFile(t *testing.T, cfgPath string) {
	t.Helper()
	oldConfigFile := configFile
	configFile = cfgPath
	t.Cleanup(func() { configFile = oldConfigFile })
}

// cliEnv is a config file pointing the CLI at a fake card API and a
// temporary database.
type cliEnv struct {
	configPath string
	dbPath     string
}

func newCLIEnv(t *testing.T, upstream http.HandlerFunc) cliEnv {
	t.Helper()
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	tmpDir := t.TempDir()
	env := cliEnv{
		configPath: filepath.Join(tmpDir, "config.yaml"),
		dbPath:     filepath.Join(tmpDir, "pokefolio.db"),
	}
	content := strings.Join([]string{
		"api:",
		"  base_url: " + server.URL,
		"  requests_per_second: 100",
		"database:",
		"  path: " + env.dbPath,
		"settings:",
		"  usd_rate: 0.9",
	}, "\n")
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o600))
	return env
}

// run executes the root command with --config set to the env's file.
func (e cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	return runCommand(t, stdin, append([]string{"--config", e.configPath}, args...)...)
}

// runCommand executes the root command with args and returns its output.
func runCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	oldNoColor, oldConfigFile := color.NoColor, configFile
	color.NoColor = true
	t.Cleanup(func() {
		color.NoColor = oldNoColor
		configFile = oldConfigFile
	})

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemMprokhorov/hippograph-pro/infrastructure/di"
	"github.com/artemMprokhorov/hippograph-pro/pkg/config"
)

func unitVector(dim int) []float32 {
	v := make([]float32, dim)
	v[0] = 1
	return v
}

func newFakeEmbedder(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"vector": unitVector(dim)})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openTestContainer(t *testing.T) openContainerFunc {
	t.Helper()
	embedder := newFakeEmbedder(t, 384)
	storePath := t.TempDir()
	return func(cmd *cobra.Command) (*di.Container, error) {
		cfg := config.Default()
		cfg.StorePath = storePath
		cfg.Capabilities.Embedder = embedder.URL
		return di.New(cfg)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	open := openTestContainer(t)
	root := &cobra.Command{Use: "hippograph"}
	root.AddCommand(
		newAddCommand(open),
		newSearchCommand(open),
		newHistoryCommand(open),
		newRestoreCommand(open),
		newStatsCommand(open),
		newGraphCommand(open),
		newSleepCommand(open),
	)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestNewRootCommand_RegistersEverySubcommand(t *testing.T) {
	root := NewRootCommand()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "add")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "history")
	assert.Contains(t, names, "restore")
	assert.Contains(t, names, "stats")
	assert.Contains(t, names, "graph")
	assert.Contains(t, names, "sleep")
}

func TestAddCommand_AddsNodeAndPrintsID(t *testing.T) {
	out, err := runCLI(t, "add", "first memory", "--category", "note")
	require.NoError(t, err)
	assert.Contains(t, out, "added node")
}

func TestAddThenSearchCommand_FindsTheNode(t *testing.T) {
	open := openTestContainer(t)
	root := &cobra.Command{Use: "hippograph"}
	root.AddCommand(newAddCommand(open), newSearchCommand(open))

	var addOut bytes.Buffer
	root.SetOut(&addOut)
	root.SetArgs([]string{"add", "remember the migration plan"})
	require.NoError(t, root.Execute())

	var searchOut bytes.Buffer
	root.SetOut(&searchOut)
	root.SetArgs([]string{"search", "migration"})
	require.NoError(t, root.Execute())
	assert.Contains(t, searchOut.String(), "migration plan")
}

func TestStatsCommand_ReportsZeroNodesOnFreshStore(t *testing.T) {
	out, err := runCLI(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "nodes: 0")
}

func TestHistoryCommand_RejectsNonNumericID(t *testing.T) {
	_, err := runCLI(t, "history", "not-a-number")
	assert.Error(t, err)
}

func TestSleepCommand_RunsLightCycleDryRun(t *testing.T) {
	out, err := runCLI(t, "sleep", "--mode", "light", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "light sleep")
}

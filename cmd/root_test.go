package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/pqsim/sim"
)

func testScenario() *Scenario {
	cfg := sim.NewConfig([]float64{0.3, 0.2}, 1, 200)
	cfg.ArrivalProcess = "exponential"
	cfg.ServiceMode = "rate"
	return &Scenario{Config: cfg, Replications: 3}
}

// withOutputs sets the output flag variables for one test.
func withOutputs(t *testing.T, csvPath, sqlite, metrics string) {
	t.Helper()
	resultsCSV, sqlitePath, metricsOut = csvPath, sqlite, metrics
	t.Cleanup(func() { resultsCSV, sqlitePath, metricsOut, plotPath = "", "", "", "" })
}

func TestRunOnce_PrintsSummary(t *testing.T) {
	withOutputs(t, "", "", "")
	var out bytes.Buffer

	require.NoError(t, runOnce(context.Background(), testScenario(), &out))

	assert.Contains(t, out.String(), "=== Queue Summary ===")
	assert.Contains(t, out.String(), "Server Utilization")
}

func TestRunOnce_WritesOutputs(t *testing.T) {
	// GIVEN every output enabled
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "queue.csv")
	dbName := filepath.Join(dir, "results")
	metricsPath := filepath.Join(dir, "pqsim.prom")
	withOutputs(t, csvPath, dbName, metricsPath)

	// WHEN the simulation runs
	require.NoError(t, runOnce(context.Background(), testScenario(), &bytes.Buffer{}))

	// THEN the CSV has a header and one row per job
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(rows), 1)
	assert.Equal(t, []string{"job", "priority", "enter_time", "exit_time", "time_in_system"}, rows[0])

	// AND the database and metrics files exist
	assert.FileExists(t, dbName+".sqlite3")
	assert.FileExists(t, metricsPath)
}

func TestRunOnce_AutoNamedDatabase(t *testing.T) {
	// GIVEN --sqlite without a value, run from an empty directory
	dir := t.TempDir()
	t.Chdir(dir)
	c := newFlagCommand(t, false, "--sqlite")
	require.Equal(t, autoSQLiteName, sqlitePath)
	withOutputs(t, "", sqlitePath, "")
	var out bytes.Buffer

	// WHEN the simulation runs
	sc, err := resolveScenario(c)
	require.NoError(t, err)
	sc.ArrivalRates = []float64{0.3, 0.2}
	require.NoError(t, runOnce(context.Background(), sc, &out))

	// THEN exactly one pqsim_<id>.sqlite3 database is created and reported
	matches, err := filepath.Glob(filepath.Join(dir, "*.sqlite3"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	name := filepath.Base(matches[0])
	assert.Regexp(t, regexp.MustCompile(`^pqsim_[0-9a-v]{20}\.sqlite3$`), name)
	assert.Contains(t, out.String(), name)
}

func TestConfigFlags_SQLiteName(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unset", nil, ""},
		{"bare flag", []string{"--sqlite"}, autoSQLiteName},
		{"explicit name", []string{"--sqlite=results"}, "results"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Cleanup(func() { sqlitePath = "" })
			newFlagCommand(t, false, tt.args...)
			assert.Equal(t, tt.want, sqlitePath)
		})
	}
}

func TestRunOnce_WritesPlot(t *testing.T) {
	withOutputs(t, "", "", "")
	plotPath = filepath.Join(t.TempDir(), "sys_plot.png")
	var out bytes.Buffer

	require.NoError(t, runOnce(context.Background(), testScenario(), &out))

	data, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])
	assert.Contains(t, out.String(), plotPath)
}

func TestRunCmd_PlotFlagRegistered(t *testing.T) {
	f := runCmd.Flags().Lookup("plot")
	require.NotNil(t, f)
	assert.Empty(t, f.DefValue)
	assert.Nil(t, replicateCmd.Flags().Lookup("plot"), "replications do not plot")
}

func TestRunOnce_InvalidConfig(t *testing.T) {
	withOutputs(t, "", "", "")
	sc := testScenario()
	sc.ServiceRate = -1

	assert.Error(t, runOnce(context.Background(), sc, &bytes.Buffer{}))
}

func TestRunReplications_PrintsComparison(t *testing.T) {
	withOutputs(t, "", "", "")
	var out bytes.Buffer

	require.NoError(t, runReplications(context.Background(), testScenario(), &out))

	assert.Contains(t, out.String(), "=== 3 Replications ===")
}

func TestRunReplications_RequiresAtLeastOne(t *testing.T) {
	withOutputs(t, "", "", "")
	sc := testScenario()
	sc.Replications = 0

	assert.Error(t, runReplications(context.Background(), sc, &bytes.Buffer{}))
}

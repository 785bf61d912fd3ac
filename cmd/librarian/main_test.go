package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

const scenarioYAML = `
logging:
  level: warn
catalog:
  patrons:
    - {id: S1, kind: student, name: Ada, email: ada@example.org, attribute: "42"}
    - {id: T1, kind: teacher, name: Grace, email: grace@example.org, attribute: Physics}
  books:
    - {isbn: "978-0", title: Dune, author: Herbert, category: Fiction}
    - {isbn: "978-1", title: Emma, author: Austen, category: Fiction}
simulation:
  start_date: "2025-03-01"
  steps:
    - {day: 0, action: borrow, patron: S1, isbn: "978-0"}
    - {day: 1, action: borrow, patron: T1, isbn: "978-0"}
    - {day: 20, action: notify-overdue}
    - {day: 22, action: report}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "librarian.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	root := newRootCommand(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func Test_Simulate_PrintsTranscript(t *testing.T) {
	// arrange
	path := writeConfig(t, scenarioYAML)

	// act
	output, err := execute(t, "simulate", "--config", path)

	// assert
	require.NoError(t, err)
	assert.Contains(t, output, "[day 0, 2025-03-01] borrow")
	assert.Contains(t, output, "Ada borrowed 'Dune'. Due back on 2025-03-15.")
	assert.Contains(t, output, "to Grace <T1>:")
	assert.Contains(t, output, "rejected: book is not available")
	assert.Contains(t, output, "OVERDUE: 'Dune' should have been returned 6 day(s) ago.")
	assert.Contains(t, output, "1 overdue alert(s) sent")
	assert.Contains(t, output, "Overdue loans")
	assert.Contains(t, output, "TRANS-1: 'Dune' held by Ada, 8 day(s) late")
}

func Test_Simulate_JSONReport(t *testing.T) {
	// arrange
	path := writeConfig(t, scenarioYAML)

	// act
	output, err := execute(t, "simulate", "--config", path, "--json")

	// assert
	require.NoError(t, err)
	assert.NotContains(t, output, "borrowed 'Dune'")

	var report jsonReport
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(output, &report))
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, "TRANS-1", report.Outcomes[0].Loan.TransactionID)
	assert.Equal(t, "book_unavailable", report.Outcomes[1].Failure)
	assert.Equal(t, 1, report.Outcomes[2].Alerts)
	assert.Equal(t, 1, report.Failures)
	assert.Equal(t, 1, report.Alerts)
	assert.Equal(t, jsonStatistics{
		AsOf:           "2025-03-23",
		Patrons:        2,
		Books:          2,
		AvailableBooks: 1,
		TotalLoans:     1,
		OpenLoans:      1,
		OverdueLoans:   1,
	}, report.Statistics)
	require.Len(t, report.Overdue, 1)
	assert.Equal(t, 8, report.Overdue[0].DaysLate)
}

func Test_Simulate_InvalidConfig(t *testing.T) {
	// arrange
	path := writeConfig(t, "journal:\n  adapter: oracle\n")

	// act
	_, err := execute(t, "simulate", "--config", path)

	// assert
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func Test_CheckConfig(t *testing.T) {
	// arrange
	path := writeConfig(t, scenarioYAML)

	// act
	output, err := execute(t, "check-config", "-c", path)

	// assert
	require.NoError(t, err)
	assert.Contains(t, output, "is valid: 2 patrons, 2 books, 4 steps, journal disabled")
}

func Test_CheckConfig_MissingFile(t *testing.T) {
	_, err := execute(t, "check-config", "--config", filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorIs(t, err, config.ErrReadingConfigFailed)
}

func Test_ExampleConfigIsValid(t *testing.T) {
	_, err := config.Load("librarian.example.yaml")

	assert.NoError(t, err)
}

func Test_ZapAdapter_ForwardsKeyValues(t *testing.T) {
	// arrange
	core, logs := observer.New(zapcore.DebugLevel)
	logger := newZapAdapter(zap.New(core))

	// act
	logger.Debug("registry operation started", "operation", "borrow")
	logger.Warn("registry operation rejected", "reason", "book_unavailable")

	// assert
	require.Equal(t, 2, logs.Len())
	entries := logs.AllUntimed()
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "borrow", entries[0].ContextMap()["operation"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "book_unavailable", entries[1].ContextMap()["reason"])
}

func Test_NewZapLogger_Levels(t *testing.T) {
	// act
	quiet, err := newZapLogger(config.LoggingConfig{Level: "warn", Format: config.FormatJSON}, false)
	require.NoError(t, err)

	verbose, err := newZapLogger(config.LoggingConfig{Level: "warn", Format: config.FormatConsole}, true)
	require.NoError(t, err)

	// assert
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

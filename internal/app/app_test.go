package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraud-signal-engine/internal/config"
	"github.com/fraud-signal-engine/internal/logging"
	"github.com/fraud-signal-engine/internal/types"
)

func testConfig(primary, backup string) *config.Config {
	return &config.Config{
		Sources: config.SourcesConfig{
			PrimaryURL:      primary,
			Timeout:         time.Second,
			BreakerFailures: 3,
			BreakerCooldown: time.Minute,
		},
		Snapshot: config.SnapshotConfig{
			CacheTTL:       time.Minute,
			MaxStaleness:   time.Hour,
			BackupFilePath: backup,
		},
		ReportHistory: config.ReportHistoryConfig{Backend: "none"},
	}
}

func quietLogger() *logging.Logger {
	logger := logging.NewLogger(logging.LevelError, logging.FormatJSON)
	logger.SetOutput(io.Discard)
	return logger
}

func TestBuildSources_SkipsEmptyURLs(t *testing.T) {
	sources, err := BuildSources(config.SourcesConfig{
		SecondaryURL: "http://secondary.invalid/tx",
		Timeout:      time.Second,
	})
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, types.SourceSecondary, sources[0].Kind())

	none, err := BuildSources(config.SourcesConfig{Timeout: time.Second})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBuild_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"from_address":"0xabc","to_address":"0xdef","amount":250,"token":"ETH","timestamp":1700000000,"status":"success"}]`))
	}))
	defer srv.Close()

	engine, err := Build(testConfig(srv.URL, ""), quietLogger())
	require.NoError(t, err)
	defer engine.Close()

	verdict := engine.Coordinator.Analyze(context.Background(), "0xABC", "", "analyst")
	require.NotNil(t, verdict)
	assert.Equal(t, types.SourcePrimary, verdict.SourceUsed)
	assert.Equal(t, 1, verdict.TransactionCount)
	assert.True(t, verdict.PerSignalDetails[types.SignalLargeTransfer].Detected)
	assert.Empty(t, verdict.Error)
}

func TestBuild_BackupOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"from_address":"0xabc","amount":1,"timestamp":1}]`), 0o600))

	engine, err := Build(testConfig("", path), quietLogger())
	require.NoError(t, err)
	defer engine.Close()

	snap, err := engine.Snapshots.GetTransactions(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, types.SourceBackupFile, snap.SourceUsed)
	assert.Equal(t, 1, snap.Len())
}

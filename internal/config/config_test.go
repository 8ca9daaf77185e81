package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	require.Equal(t, 8080, cfg.HTTP.Port)
	require.Equal(t, time.Second, cfg.JobNimbus.SyncDelay)
	require.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JOBNIMBUS_SYNC_DELAY", "2s")
	t.Setenv("MEDIA_GCS_BUCKET", "dispatch-photos")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, 9090, cfg.HTTP.Port)
	require.Equal(t, 2*time.Second, cfg.JobNimbus.SyncDelay)
	require.Equal(t, "dispatch-photos", cfg.Media.GCSBucket)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("JWT_ACCESS_SECRET", "")
	_, err = Load()
	require.Error(t, err)
}

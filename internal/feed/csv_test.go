package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

func TestReadCSV(t *testing.T) {
	data := `# exported EUR/USD 15m
Datetime,Open,High,Low,Close,Volume
2024-05-06 10:15:00,1.0755,1.0761,1.0754,1.0760,120
2024-05-06 10:00:00,1.0750,1.0756,1.0749,1.0755,
2024-05-06T10:30:00Z,1.0760,1.0765,1.0758,1.0762,90
`
	candles, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Zero(t, candles[0].Volume)
	assert.Equal(t, 1.0760, candles[1].Close)
	assert.Equal(t, 120.0, candles[1].Volume)
	assert.Equal(t, 90.0, candles[2].Volume)
}

func TestReadCSVUnixTimestampsWithoutVolume(t *testing.T) {
	data := "timestamp,open,high,low,close\n1714989600,150.1,150.4,149.9,150.2\n1714990500,150.2,150.5,150.0,150.3\n"
	candles, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, int64(1714989600), candles[0].Timestamp.Unix())
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		errMsg string
	}{
		{"empty", "", "empty candle file"},
		{"missing column", "timestamp,open,high,low\n", `"close"`},
		{"bad number", "timestamp,open,high,low,close\n2024-05-06,1.1,1.2,x,1.15\n", "line 2: low"},
		{"bad timestamp", "timestamp,open,high,low,close\nmonday,1.1,1.2,1.0,1.15\n", "unrecognised timestamp"},
		{"duplicate timestamp", "timestamp,open,high,low,close\n2024-05-06,1.1,1.2,1.0,1.15\n2024-05-06,1.1,1.2,1.0,1.15\n", "invalid candles"},
		{"ragged row", "timestamp,open,high,low,close\n2024-05-06,1.1,1.2\n", "reading row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candles.csv")
	require.NoError(t, os.WriteFile(path, []byte("timestamp,open,high,low,close\n2024-05-06,1.1,1.2,1.0,1.15\n"), 0o600))

	candles, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Len(t, candles, 1)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("timestamp,open,high,low,close\n2024-05-06,-1,1.2,1.0,1.15\n"), 0o600))
	_, err = LoadCSV(bad)
	assert.ErrorIs(t, err, models.ErrInvalidCandles)
}

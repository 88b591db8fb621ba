package feed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Liam-wats/SmartMoneyTrader-sub000/models"
)

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadCSV reads candles from a CSV file. See ReadCSV for the format.
func LoadCSV(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening candle file: %w", err)
	}
	defer f.Close()

	candles, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return candles, nil
}

// ReadCSV parses a header row followed by one candle per row. The columns
// timestamp (or datetime), open, high, low and close are required, volume is
// optional. Rows may come in any order; the result is sorted oldest first and
// validated.
func ReadCSV(r io.Reader) ([]models.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty candle file")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["timestamp"]; !ok {
		if i, ok := cols["datetime"]; ok {
			cols["timestamp"] = i
		}
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing %q column", required)
		}
	}
	volumeCol, hasVolume := cols["volume"]

	var candles []models.Candle
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		ts, err := parseTimestamp(record[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		c := models.Candle{Timestamp: ts}
		fields := []struct {
			col string
			dst *float64
		}{
			{"open", &c.Open}, {"high", &c.High}, {"low", &c.Low}, {"close", &c.Close},
		}
		for _, f := range fields {
			if *f.dst, err = strconv.ParseFloat(strings.TrimSpace(record[cols[f.col]]), 64); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, f.col, err)
			}
		}
		if hasVolume && strings.TrimSpace(record[volumeCol]) != "" {
			if c.Volume, err = strconv.ParseFloat(strings.TrimSpace(record[volumeCol]), 64); err != nil {
				return nil, fmt.Errorf("line %d: volume: %w", line, err)
			}
		}
		candles = append(candles, c)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})
	if err := models.ValidateCandles(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

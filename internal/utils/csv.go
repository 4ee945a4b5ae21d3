package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"stockMatrix/internal/domain"
)

// WriteDatasetToCSV writes one row per candle of ds, joined with the volume
// bar of the same time. Missing volume bars leave the volume columns empty.
func WriteDatasetToCSV(ds *domain.Dataset, filename string) error {
	if ds == nil || ds.Candles == nil {
		return fmt.Errorf("write %s: no candles", filename)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return err
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	writer.Write([]string{"time", "ticker", "interval", "open", "high", "low", "close", "volume", "direction"})

	for _, c := range ds.Candles.Points {
		volume, direction := "", ""
		if ds.Volume != nil {
			if v, ok := ds.Volume.At(c.Time); ok {
				volume = strconv.FormatFloat(v.Value, 'f', -1, 64)
				direction = string(v.Category)
			}
		}
		writer.Write([]string{
			c.Time.Time().Format(time.RFC3339),
			ds.Config.Ticker,
			ds.Config.Interval,
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
			volume,
			direction,
		})
	}
	writer.Flush()
	return writer.Error()
}

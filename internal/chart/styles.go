package chart

import (
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Colors used by the chart, indexed by moving average period order.
var averagePalette = []string{"#A83838", "#F09A16", "#EFF048", "#5DF016", "#13C3F0", "#493CF0", "#F000DF"}

const (
	bandsColor   = "#ADD8E6"
	candlesColor = "#26A69A"
)

var categoryColors = map[domain.Category]string{
	domain.CategoryUp:   "green",
	domain.CategoryDown: "red",
	domain.CategoryFlat: "grey",
}

// oscillatorLine maps an internal technical series key to its legend label and color.
type oscillatorLine struct {
	Key   string
	Label string
	Color string // empty: colored per bar by category
}

// oscillatorLines is the static legend table for each indicator family.
var oscillatorLines = map[domain.IndicatorFamily][]oscillatorLine{
	domain.IndicatorMACD: {
		{Key: "macd_line", Label: "MACD", Color: "orange"},
		{Key: "signal_line", Label: "Signal", Color: "deepskyblue"},
		{Key: "histogram", Label: "Histogram"},
	},
	domain.IndicatorRSI: {
		{Key: "rsi_line", Label: "RSI", Color: "orange"},
	},
	domain.IndicatorKDJ: {
		{Key: "k_line", Label: "K", Color: "gold"},
		{Key: "d_line", Label: "D", Color: "blue"},
		{Key: "j_line", Label: "J", Color: "purple"},
	},
}

// selectsTechnical reports whether key is one of the active indicator's sub-lines.
func selectsTechnical(cfg domain.ChartConfig, key string) bool {
	for _, line := range oscillatorLines[cfg.Indicator] {
		if line.Key == key {
			return true
		}
	}
	return false
}

// maPeriods lists the moving average periods computed per chart interval;
// a period's position picks its palette color.
var maPeriods = map[string][]int{
	"1m":  {5, 10, 20, 30, 60, 120},
	"5m":  {6, 12, 24, 36, 72, 144},
	"15m": {4, 8, 16, 24, 48, 96},
	"30m": {3, 6, 12, 18, 36, 72},
	"60m": {3, 5, 8, 13, 21, 34},
	"1d":  {5, 10, 20, 30, 60, 120, 250},
	"1wk": {5, 10, 20, 30, 60},
	"1mo": {3, 5, 10, 12, 24, 36},
	"3mo": {2, 4, 8, 12, 16},
}

// averageColor returns the color of an overlay series. Periods outside the
// interval's table fall back to a color derived from the period itself.
func averageColor(cfg domain.ChartConfig, name string) string {
	if domain.IsBand(name) {
		return bandsColor
	}
	period, ok := domain.AveragePeriod(name)
	if !ok {
		return averagePalette[0]
	}
	for i, p := range maPeriods[cfg.Interval] {
		if p == period {
			return averagePalette[i%len(averagePalette)]
		}
	}
	return averagePalette[period%len(averagePalette)]
}

func oscillatorStyle(cfg domain.ChartConfig, key string) ports.StyleOptions {
	for _, line := range oscillatorLines[cfg.Indicator] {
		if line.Key == key {
			return ports.StyleOptions{Color: line.Color, LineWidth: 1, Title: line.Label}
		}
	}
	return ports.StyleOptions{LineWidth: 1, Title: key}
}

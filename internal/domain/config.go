package domain

import (
	"fmt"
	"strings"
)

// IndicatorFamily selects the oscillator family shown on the technical pane.
type IndicatorFamily string

const (
	IndicatorMACD IndicatorFamily = "macd"
	IndicatorRSI  IndicatorFamily = "rsi"
	IndicatorKDJ  IndicatorFamily = "kdj"
)

// Valid reports whether the family is one the chart knows how to label.
func (f IndicatorFamily) Valid() bool {
	switch f {
	case IndicatorMACD, IndicatorRSI, IndicatorKDJ:
		return true
	}
	return false
}

// Names of the fixed series in every dataset.
const (
	CandlestickSeries = "candlestick"
	VolumeSeries      = "volume"
	bandPrefix        = "BBANDS_"
)

// ChartConfig is the active configuration of a chart.
// Any change to it tears down and rebuilds every series.
type ChartConfig struct {
	Ticker    string          `json:"ticker" yaml:"ticker"`
	Interval  string          `json:"interval" yaml:"interval"`
	MAFamily  string          `json:"ma_options" yaml:"ma_options"`
	Indicator IndicatorFamily `json:"tech_ind" yaml:"tech_ind"`
}

// Validate checks the fields required to request and label a dataset.
func (c ChartConfig) Validate() error {
	var errs []string
	if c.Ticker == "" {
		errs = append(errs, "ticker must be set")
	}
	if c.Interval == "" {
		errs = append(errs, "interval must be set")
	}
	if c.MAFamily == "" {
		errs = append(errs, "moving average family must be set")
	}
	if !c.Indicator.Valid() {
		errs = append(errs, fmt.Sprintf("unsupported indicator %q", c.Indicator))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid chart config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Key identifies the configuration in caches and stores.
func (c ChartConfig) Key() string {
	return strings.Join([]string{strings.ToUpper(c.Ticker), c.Interval, strings.ToLower(c.MAFamily), string(c.Indicator)}, ":")
}

// IsDaily reports whether the interval uses date-only timestamps.
func (c ChartConfig) IsDaily() bool {
	switch c.Interval {
	case "1d", "1wk", "1mo":
		return true
	}
	return false
}

// SelectsAverage reports whether an overlay series belongs to the active
// moving average family. Bands ride along with every family.
func (c ChartConfig) SelectsAverage(name string) bool {
	if IsBand(name) {
		return true
	}
	prefix := strings.ToUpper(c.MAFamily)
	if prefix == "" || !strings.HasPrefix(name, prefix) {
		return false
	}
	_, ok := AveragePeriod(name)
	return ok
}

// IsBand reports whether the overlay series name is a band line.
func IsBand(name string) bool {
	return strings.HasPrefix(name, bandPrefix)
}

// AveragePeriod extracts the trailing period of a moving average name, e.g. 20 for "SMA20".
func AveragePeriod(name string) (int, bool) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) || i == 0 {
		return 0, false
	}
	period := 0
	for _, r := range name[i:] {
		period = period*10 + int(r-'0')
	}
	return period, true
}

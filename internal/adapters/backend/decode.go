package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// chartDataResponse mirrors the API's ChartDataResponse body.
type chartDataResponse struct {
	Candlestick []wirePoint            `json:"candlestick_data"`
	Volume      []wirePoint            `json:"volume_data"`
	MA          map[string][]wirePoint `json:"ma_data"`
	Technical   map[string][]wirePoint `json:"technical_data"`
	ChartConfig map[string]interface{} `json:"chart_config"`
}

type wirePoint struct {
	Time  wireTime `json:"time"`
	Value float64  `json:"value"`
	Open  float64  `json:"open"`
	High  float64  `json:"high"`
	Low   float64  `json:"low"`
	Close float64  `json:"close"`
	Color string   `json:"color"`
}

// wireTime accepts unix seconds (intraday) or "YYYY-MM-DD" (daily intervals).
type wireTime domain.TimePoint

func (t *wireTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		tp, err := domain.ParseTimePoint(s)
		if err != nil {
			return err
		}
		*t = wireTime(tp)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("time %s: %w", b, err)
	}
	*t = wireTime(int64(f))
	return nil
}

var colorCategories = map[string]domain.Category{
	"green": domain.CategoryUp,
	"red":   domain.CategoryDown,
	"grey":  domain.CategoryFlat,
	"gray":  domain.CategoryFlat,
}

// DecodeChartData converts a ChartDataResponse body into a Dataset for cfg.
// Bar colors become categories. Every series must be strictly time-ordered.
func DecodeChartData(cfg domain.ChartConfig, payload []byte) (*domain.Dataset, error) {
	var resp chartDataResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode chart data: %w", ports.ErrMalformedPayload, err)
	}

	ds := domain.NewDataset(cfg)
	for _, w := range resp.Candlestick {
		ds.Candles.Points = append(ds.Candles.Points, domain.Point{
			Time: domain.TimePoint(w.Time), Open: w.Open, High: w.High, Low: w.Low, Close: w.Close,
		})
	}
	for _, w := range resp.Volume {
		cat, ok := colorCategories[w.Color]
		if !ok {
			cat = domain.CategoryFlat
		}
		ds.Volume.Points = append(ds.Volume.Points, domain.Point{Time: domain.TimePoint(w.Time), Value: w.Value, Category: cat})
	}
	for name, pts := range resp.MA {
		ds.AddAverage(name, valuePoints(pts))
	}
	for key, pts := range resp.Technical {
		ds.AddTechnical(key, valuePoints(pts))
	}

	if len(ds.Candles.Points) == 0 {
		return nil, fmt.Errorf("chart data for %s has no candles: %w", cfg.Key(), ports.ErrNotFound)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrMalformedPayload, err)
	}
	return ds, nil
}

func valuePoints(in []wirePoint) []domain.Point {
	out := make([]domain.Point, 0, len(in))
	for _, w := range in {
		p := domain.Point{Time: domain.TimePoint(w.Time), Value: w.Value}
		if cat, ok := colorCategories[w.Color]; ok {
			p.Category = cat
		}
		out = append(out, p)
	}
	return out
}

package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMatrix/internal/domain"
)

func legendAt(t domain.TimePoint) domain.LegendModel {
	m := domain.NewLegendModel(t, domain.PanePrice)
	m.Values[domain.PanePrice][domain.CandlestickSeries] = domain.Point{Time: t, Open: 100, High: 103.456, Low: 99.5, Close: 101.005}
	m.Values[domain.PanePrice]["SMA20"] = domain.Point{Time: t, Value: 95}
	m.Values[domain.PanePrice]["SMA5"] = domain.Point{Time: t, Value: 101.0}
	m.Values[domain.PanePrice]["EMA10"] = domain.Point{Time: t, Value: 100.7}
	m.Values[domain.PanePrice]["BBANDS_UPPER"] = domain.Point{Time: t, Value: 105.5}
	m.Values[domain.PaneVolume][domain.VolumeSeries] = domain.Point{Time: t, Value: 1234567.6, Category: domain.CategoryDown}
	m.Values[domain.PaneTechnical]["macd_line"] = domain.Point{Time: t, Value: 0.7}
	m.Values[domain.PaneTechnical]["histogram"] = domain.Point{Time: t, Value: -0.123, Category: domain.CategoryDown}
	m.Values[domain.PaneTechnical]["rsi_line"] = domain.Point{Time: t, Value: 58}
	return m
}

func rowNames(rows []domain.LegendRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Series)
	}
	return out
}

func TestProjectLegend_ClearedModel(t *testing.T) {
	for _, highlight := range []domain.HighlightState{{}, {Series: "SMA5"}} {
		d := ProjectLegend(domain.LegendModel{}, highlight, testConfig, DefaultFormat)
		assert.True(t, d.Empty())
		assert.Equal(t, "", d.Highlighted)
		for i, p := range d.Panes {
			assert.Equal(t, domain.AllPanes[i], p.Pane)
			assert.False(t, p.Visible)
			assert.Empty(t, p.Rows)
		}
	}
}

func TestProjectLegend_PricePane(t *testing.T) {
	d := ProjectLegend(legendAt(t0), domain.HighlightState{Series: "SMA5"}, testConfig, DefaultFormat)

	assert.Equal(t, "2023-11-14", d.Time)
	price := d.Panes[domain.PanePrice]
	assert.True(t, price.Visible)
	assert.Equal(t, []string{"candlestick", "SMA5", "SMA20", "BBANDS_UPPER"}, rowNames(price.Rows), "EMA10 belongs to another family")

	candle := price.Rows[0]
	assert.Equal(t, "AAPL", candle.Label)
	assert.Equal(t, "green", candle.Color)
	assert.Equal(t, []domain.LabeledValue{
		{Label: "O", Text: "100.00"},
		{Label: "H", Text: "103.46"},
		{Label: "L", Text: "99.50"},
		{Label: "C", Text: "101.01"},
	}, candle.Values)

	assert.True(t, price.Rows[1].Emphasized)
	assert.Equal(t, "101.00", price.Rows[1].Values[0].Text)
	assert.Equal(t, "#A83838", price.Rows[1].Color)
	assert.False(t, price.Rows[2].Emphasized)
	assert.Equal(t, "#EFF048", price.Rows[2].Color, "SMA20 is the third daily period")
	assert.Equal(t, bandsColor, price.Rows[3].Color)
	assert.Equal(t, "SMA5", d.Highlighted)
}

func TestProjectLegend_HighlightOnlyMatchesDisplayedRows(t *testing.T) {
	tests := []struct {
		name      string
		highlight string
		want      string
	}{
		{name: "no highlight", highlight: "", want: ""},
		{name: "filtered family", highlight: "EMA10", want: ""},
		{name: "band", highlight: "BBANDS_UPPER", want: ""},
		{name: "active average", highlight: "SMA20", want: "SMA20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ProjectLegend(legendAt(t0), domain.HighlightState{Series: tt.highlight}, testConfig, DefaultFormat)
			assert.Equal(t, tt.want, d.Highlighted)
			emphasized := 0
			for _, row := range d.Panes[domain.PanePrice].Rows {
				if row.Emphasized {
					emphasized++
				}
			}
			assert.LessOrEqual(t, emphasized, 1)
		})
	}
}

func TestProjectLegend_VolumePane(t *testing.T) {
	d := ProjectLegend(legendAt(t0), domain.HighlightState{}, testConfig, DefaultFormat)

	vol := d.Panes[domain.PaneVolume]
	require.Len(t, vol.Rows, 1)
	assert.True(t, vol.Visible)
	assert.Equal(t, "red", vol.Rows[0].Color)
	assert.Equal(t, "1234568", vol.Rows[0].Values[0].Text)
}

func TestProjectLegend_TechnicalPaneFollowsIndicatorTable(t *testing.T) {
	tests := []struct {
		indicator  domain.IndicatorFamily
		wantSeries []string
		wantLabels []string
		wantNoData []bool
	}{
		{
			indicator:  domain.IndicatorMACD,
			wantSeries: []string{"macd_line", "signal_line", "histogram"},
			wantLabels: []string{"MACD", "Signal", "Histogram"},
			wantNoData: []bool{false, true, false},
		},
		{
			indicator:  domain.IndicatorRSI,
			wantSeries: []string{"rsi_line"},
			wantLabels: []string{"RSI"},
			wantNoData: []bool{false},
		},
		{
			indicator:  domain.IndicatorKDJ,
			wantSeries: []string{"k_line", "d_line", "j_line"},
			wantLabels: []string{"K", "D", "J"},
			wantNoData: []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.indicator), func(t *testing.T) {
			cfg := testConfig
			cfg.Indicator = tt.indicator
			tech := ProjectLegend(legendAt(t0), domain.HighlightState{}, cfg, DefaultFormat).Panes[domain.PaneTechnical]

			require.Len(t, tech.Rows, len(tt.wantSeries))
			allMissing := true
			for i, row := range tech.Rows {
				assert.Equal(t, tt.wantSeries[i], row.Series)
				assert.Equal(t, tt.wantLabels[i], row.Label)
				assert.Equal(t, tt.wantNoData[i], row.NoData)
				if !row.NoData {
					allMissing = false
				}
			}
			assert.Equal(t, !allMissing, tech.Visible)
		})
	}
}

func TestProjectLegend_HistogramColoredByCategory(t *testing.T) {
	tech := ProjectLegend(legendAt(t0), domain.HighlightState{}, testConfig, DefaultFormat).Panes[domain.PaneTechnical]
	require.Len(t, tech.Rows, 3)
	assert.Equal(t, "orange", tech.Rows[0].Color)
	assert.Equal(t, "red", tech.Rows[2].Color)
	assert.Equal(t, "-0.12", tech.Rows[2].Values[0].Text)
}

func TestProjectLegend_IntradayTimeAndPrecision(t *testing.T) {
	cfg := testConfig
	cfg.Interval = "5m"
	f := Format{Precision: 3, VolumePrecision: 1}

	d := ProjectLegend(legendAt(t0+90*60), domain.HighlightState{}, cfg, f)

	assert.Equal(t, "2023-11-14 01:30", d.Time)
	assert.Equal(t, "101.005", d.Panes[domain.PanePrice].Rows[0].Values[3].Text)
	assert.Equal(t, "1234567.6", d.Panes[domain.PaneVolume].Rows[0].Values[0].Text)
}

func TestProjectLegend_IsDeterministic(t *testing.T) {
	m := legendAt(t0)
	first := ProjectLegend(m, domain.HighlightState{Series: "SMA20"}, testConfig, DefaultFormat)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, ProjectLegend(m, domain.HighlightState{Series: "SMA20"}, testConfig, DefaultFormat))
	}
}

func TestProjectLegend_NonFiniteValuesRenderAsNoData(t *testing.T) {
	m := legendAt(t0)
	m.Values[domain.PanePrice]["SMA5"] = domain.Point{Time: t0, Value: math.NaN()}
	m.Values[domain.PanePrice][domain.CandlestickSeries] = domain.Point{Time: t0, Open: 100, High: math.Inf(1), Low: 99, Close: 101}
	m.Values[domain.PaneVolume][domain.VolumeSeries] = domain.Point{Time: t0, Value: math.Inf(-1)}
	m.Values[domain.PaneTechnical]["macd_line"] = domain.Point{Time: t0, Value: math.NaN()}

	var d domain.DisplayModel
	require.NotPanics(t, func() {
		d = ProjectLegend(m, domain.HighlightState{Series: "SMA5"}, testConfig, DefaultFormat)
	})

	price := d.Panes[domain.PanePrice].Rows
	require.Len(t, price, 4)
	assert.True(t, price[0].NoData)
	assert.Empty(t, price[0].Values)
	assert.True(t, price[1].NoData)
	assert.False(t, price[1].Emphasized)
	assert.Equal(t, "", d.Highlighted)
	assert.False(t, price[2].NoData, "SMA20 is still rendered")

	assert.False(t, d.Panes[domain.PaneVolume].Visible)
	assert.True(t, d.Panes[domain.PaneVolume].Rows[0].NoData)
	assert.True(t, d.Panes[domain.PaneTechnical].Rows[0].NoData)
}

package chart

import (
	"math"

	"github.com/shopspring/decimal"

	"stockMatrix/internal/domain"
)

// Format controls how legend numbers are rendered.
type Format struct {
	Precision       int32 // digits after the point for prices and indicators
	VolumePrecision int32
}

// DefaultFormat shows prices with two decimals and volume as integers.
var DefaultFormat = Format{Precision: 2, VolumePrecision: 0}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// ProjectLegend turns a resolved LegendModel into the display model the UI
// renders. It has no side effects: the same inputs always give the same output.
//
// Only series selected by cfg appear. The highlighted series is emphasized.
// The technical pane always lists every sub-line of the active indicator
// from the static table, marking lines without a value as NoData.
func ProjectLegend(model domain.LegendModel, highlight domain.HighlightState, cfg domain.ChartConfig, f Format) domain.DisplayModel {
	var out domain.DisplayModel
	for i, id := range domain.AllPanes {
		out.Panes[i].Pane = id
	}
	if model.Cleared() {
		return out
	}

	if cfg.IsDaily() {
		out.Time = model.Time.Time().Format(dateLayout)
	} else {
		out.Time = model.Time.Time().Format(dateTimeLayout)
	}

	out.Panes[domain.PanePrice].Rows = priceRows(model, highlight, cfg, f)
	out.Panes[domain.PaneVolume].Rows = volumeRows(model, f)
	out.Panes[domain.PaneTechnical].Rows = technicalRows(model, cfg, f)

	for i := range out.Panes {
		for _, row := range out.Panes[i].Rows {
			if !row.NoData {
				out.Panes[i].Visible = true
				break
			}
		}
	}
	for _, row := range out.Panes[domain.PanePrice].Rows {
		if row.Emphasized {
			out.Highlighted = row.Series
		}
	}
	return out
}

func priceRows(model domain.LegendModel, highlight domain.HighlightState, cfg domain.ChartConfig, f Format) []domain.LegendRow {
	values := model.Values[domain.PanePrice]
	var rows []domain.LegendRow

	if p, ok := values[domain.CandlestickSeries]; ok {
		row := domain.LegendRow{
			Series: domain.CandlestickSeries,
			Label:  cfg.Ticker,
			Color:  categoryColors[domain.CategoryFor(p.Open, p.Close)],
		}
		setValues(&row, f.Precision, ohlcLabels, p.Open, p.High, p.Low, p.Close)
		rows = append(rows, row)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		if name != domain.CandlestickSeries && cfg.SelectsAverage(name) {
			names = append(names, name)
		}
	}
	for _, name := range domain.SortAverageNames(names) {
		row := domain.LegendRow{
			Series: name,
			Label:  name,
			Color:  averageColor(cfg, name),
		}
		setValues(&row, f.Precision, nil, values[name].Value)
		row.Emphasized = !row.NoData && highlight.Series != "" && highlight.Series == name && !domain.IsBand(name)
		rows = append(rows, row)
	}
	return rows
}

func volumeRows(model domain.LegendModel, f Format) []domain.LegendRow {
	p, ok := model.Values[domain.PaneVolume][domain.VolumeSeries]
	if !ok {
		return nil
	}
	row := domain.LegendRow{
		Series: domain.VolumeSeries,
		Label:  "Volume",
		Color:  categoryColors[p.Category],
	}
	setValues(&row, f.VolumePrecision, nil, p.Value)
	return []domain.LegendRow{row}
}

func technicalRows(model domain.LegendModel, cfg domain.ChartConfig, f Format) []domain.LegendRow {
	values := model.Values[domain.PaneTechnical]
	lines := oscillatorLines[cfg.Indicator]
	rows := make([]domain.LegendRow, 0, len(lines))
	for _, line := range lines {
		row := domain.LegendRow{Series: line.Key, Label: line.Label, Color: line.Color}
		p, ok := values[line.Key]
		if !ok {
			row.NoData = true
			rows = append(rows, row)
			continue
		}
		if row.Color == "" {
			cat := p.Category
			if cat == "" {
				cat = domain.CategoryForValue(p.Value)
			}
			row.Color = categoryColors[cat]
		}
		setValues(&row, f.Precision, nil, p.Value)
		rows = append(rows, row)
	}
	return rows
}

var ohlcLabels = []string{"O", "H", "L", "C"}

// setValues formats vals into row. A value that cannot be rendered marks
// the whole row NoData.
func setValues(row *domain.LegendRow, precision int32, labels []string, vals ...float64) {
	out := make([]domain.LabeledValue, len(vals))
	for i, v := range vals {
		text, ok := formatNumber(v, precision)
		if !ok {
			row.Values, row.NoData = nil, true
			return
		}
		out[i].Text = text
		if i < len(labels) {
			out[i].Label = labels[i]
		}
	}
	row.Values = out
}

func formatNumber(v float64, precision int32) (string, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return decimal.NewFromFloat(v).StringFixed(precision), true
}

package chart

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

func overlay(name string, h ports.SeriesHandle) RegisteredSeries {
	return RegisteredSeries{Name: name, Role: domain.RoleOverlayAverage, Pane: domain.PanePrice, Handle: h}
}

func TestNearestOverlayMatcher_FindNearest(t *testing.T) {
	inside := domain.ScreenPoint{X: 100, Y: 100}
	values := map[string]domain.Point{
		"SMA5":  {Time: t0, Value: 101.0},
		"SMA20": {Time: t0, Value: 95.0},
	}
	candidates := []RegisteredSeries{overlay("SMA5", 1), overlay("SMA20", 2)}

	tests := []struct {
		name       string
		implied    float64
		pointer    domain.ScreenPoint
		candidates []RegisteredSeries
		values     map[string]domain.Point
		threshold  float64
		want       string
	}{
		{
			name:       "closest candidate within threshold",
			implied:    100.5, // distances 0.5 and 5.5
			pointer:    inside,
			candidates: candidates,
			values:     values,
			want:       "SMA5",
		},
		{
			name:       "every candidate beyond threshold",
			implied:    90.0, // distances 11.0 and 5.0
			pointer:    inside,
			candidates: candidates,
			values:     values,
			want:       "",
		},
		{
			name:       "distance equal to threshold still matches",
			implied:    97.0,
			pointer:    inside,
			candidates: candidates,
			values:     values,
			want:       "SMA20",
		},
		{
			name:       "tie resolves to first candidate",
			implied:    98.0,
			pointer:    inside,
			candidates: candidates,
			values:     map[string]domain.Point{"SMA5": {Value: 99.0}, "SMA20": {Value: 97.0}},
			want:       "SMA5",
		},
		{
			name:    "bands are never candidates",
			implied: 100.6,
			pointer: inside,
			candidates: []RegisteredSeries{
				{Name: "BBANDS_UPPER", Role: domain.RoleBand, Handle: 3},
				overlay("SMA5", 1),
			},
			values: map[string]domain.Point{"BBANDS_UPPER": {Value: 100.6}, "SMA5": {Value: 101.0}},
			want:   "SMA5",
		},
		{
			name:       "candidate without a value is skipped",
			implied:    100.5,
			pointer:    inside,
			candidates: candidates,
			values:     map[string]domain.Point{"SMA20": {Value: 99.0}},
			want:       "SMA20",
		},
		{
			name:       "pointer outside the pane",
			implied:    100.5,
			pointer:    domain.ScreenPoint{X: 100, Y: 450},
			candidates: candidates,
			values:     values,
			want:       "",
		},
		{
			name:       "custom threshold",
			implied:    90.0,
			pointer:    inside,
			candidates: candidates,
			values:     values,
			threshold:  6.0,
			want:       "SMA20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pane := newFakePane(domain.PanePrice)
			for _, c := range tt.candidates {
				pane.implied[c.Handle] = tt.implied
			}
			m := NewNearestOverlayMatcher(pane, tt.threshold)
			assert.Equal(t, tt.want, m.FindNearest(tt.pointer, tt.candidates, tt.values))
		})
	}
}

func TestNearestOverlayMatcher_DefaultThreshold(t *testing.T) {
	assert.Equal(t, DefaultHighlightThreshold, NewNearestOverlayMatcher(newFakePane(domain.PanePrice), 0).Threshold())
	assert.Equal(t, 3.5, NewNearestOverlayMatcher(newFakePane(domain.PanePrice), 3.5).Threshold())
	for _, bad := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, DefaultHighlightThreshold, NewNearestOverlayMatcher(newFakePane(domain.PanePrice), bad).Threshold(), "threshold %v", bad)
	}
}

func TestNearestOverlayMatcher_NaNThresholdKeepsDistantLinesUnmatched(t *testing.T) {
	pane := newFakePane(domain.PanePrice)
	pane.implied[1] = 10
	m := NewNearestOverlayMatcher(pane, math.NaN())

	got := m.FindNearest(domain.ScreenPoint{X: 1, Y: 1}, []RegisteredSeries{overlay("SMA5", 1)}, map[string]domain.Point{"SMA5": {Value: 500}})
	assert.Empty(t, got)
}

func TestNearestOverlayMatcher_NeverExceedsThreshold(t *testing.T) {
	pane := newFakePane(domain.PanePrice)
	candidates := []RegisteredSeries{overlay("SMA5", 1), overlay("SMA10", 2), overlay("SMA20", 3)}
	values := map[string]domain.Point{"SMA5": {Value: 100}, "SMA10": {Value: 103}, "SMA20": {Value: 110}}
	m := NewNearestOverlayMatcher(pane, 2.0)

	for implied := 90.0; implied <= 120.0; implied += 0.25 {
		for _, c := range candidates {
			pane.implied[c.Handle] = implied
		}
		got := m.FindNearest(domain.ScreenPoint{X: 1, Y: 1}, candidates, values)
		if got == "" {
			continue
		}
		dist := values[got].Value - implied
		if dist < 0 {
			dist = -dist
		}
		assert.LessOrEqual(t, dist, 2.0, "implied %.2f matched %s", implied, got)
		for _, other := range candidates {
			d := values[other.Name].Value - implied
			if d < 0 {
				d = -d
			}
			assert.LessOrEqual(t, dist, d, "implied %.2f: %s is closer than %s", implied, other.Name, got)
		}
	}
}

func TestNearestOverlayMatcher_WithHeadlessScale(t *testing.T) {
	panes, concrete := headlessPanes()
	reg := BuildRegistry(context.Background(), panes, testDataset(), &mockLogger{})
	price := concrete[domain.PanePrice]
	require.NoError(t, price.FitContent())
	sma5, _ := reg.Lookup(domain.PanePrice, "SMA5")

	at := t0 + 2*day
	model := CrosshairResolver{}.Resolve(reg, domain.CrosshairState{Source: domain.PanePrice, Time: tp(at)}, nil)
	m := NewNearestOverlayMatcher(price, DefaultHighlightThreshold)

	x, _ := price.TimeToX(at)
	y, ok := price.PriceToY(sma5.Handle, 100.5)
	require.True(t, ok)
	assert.Equal(t, "SMA5", m.FindNearest(domain.ScreenPoint{X: x, Y: y}, reg.Series(domain.PanePrice), model.Values[domain.PanePrice]))

	// 3.5 from SMA5 and 2.5 from SMA20: both beyond the threshold.
	y, _ = price.PriceToY(sma5.Handle, 97.5)
	assert.Equal(t, "", m.FindNearest(domain.ScreenPoint{X: x, Y: y}, reg.Series(domain.PanePrice), model.Values[domain.PanePrice]))
}

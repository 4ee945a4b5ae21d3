package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimePoint is a unix timestamp in seconds shared by every pane.
// Lookups compare TimePoints exactly.
type TimePoint int64

// Time converts the TimePoint to a UTC time.Time.
func (t TimePoint) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// TimePointOf converts a time.Time to a TimePoint, truncating to seconds.
func TimePointOf(t time.Time) TimePoint {
	return TimePoint(t.Unix())
}

// ParseTimePoint reads "YYYY-MM-DD" (midnight UTC), RFC 3339 or unix seconds.
func ParseTimePoint(s string) (TimePoint, error) {
	s = strings.TrimSpace(s)
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return TimePointOf(d), nil
	}
	if d, err := time.Parse(time.RFC3339, s); err == nil {
		return TimePointOf(d), nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("time %q is neither a date nor unix seconds", s)
	}
	return TimePoint(sec), nil
}

// Point is a single record of a series.
// Candlestick records use Open/High/Low/Close; every other role uses Value.
type Point struct {
	Time     TimePoint `json:"time"`
	Value    float64   `json:"value,omitempty"`
	Open     float64   `json:"open,omitempty"`
	High     float64   `json:"high,omitempty"`
	Low      float64   `json:"low,omitempty"`
	Close    float64   `json:"close,omitempty"`
	Category Category  `json:"category,omitempty"`
}

// Finite reports whether every numeric field of p is a real number.
func (p Point) Finite() bool {
	for _, v := range [...]float64{p.Value, p.Open, p.High, p.Low, p.Close} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Series is a named, time-ordered sequence of points.
type Series struct {
	Name   string     `json:"name"`
	Role   SeriesRole `json:"role"`
	Points []Point    `json:"points"`
}

// Pane returns the pane this series is drawn on.
func (s *Series) Pane() PaneID {
	return PaneFor(s.Role)
}

// At returns the point stored at exactly t.
// A missing timestamp reports false; no interpolation is attempted.
func (s *Series) At(t TimePoint) (Point, bool) {
	if s == nil {
		return Point{}, false
	}
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Time >= t })
	if i < len(s.Points) && s.Points[i].Time == t {
		return s.Points[i], true
	}
	return Point{}, false
}

// Span returns the first and last timestamps of the series.
func (s *Series) Span() (TimePoint, TimePoint, bool) {
	if s == nil || len(s.Points) == 0 {
		return 0, 0, false
	}
	return s.Points[0].Time, s.Points[len(s.Points)-1].Time, true
}

// Validate checks that timestamps are strictly increasing and that every
// value is finite.
func (s *Series) Validate() error {
	for i, p := range s.Points {
		if !p.Finite() {
			return fmt.Errorf("series %s: non-finite value at %d", s.Name, p.Time)
		}
		if i > 0 && p.Time <= s.Points[i-1].Time {
			return fmt.Errorf("series %s: timestamp %d at index %d is not after %d",
				s.Name, p.Time, i, s.Points[i-1].Time)
		}
	}
	return nil
}

// Normalize projects p onto the fields meaningful for role.
// Both the live pointer payload and dataset lookups pass through here
// so callers cannot tell which path produced a point.
func Normalize(role SeriesRole, t TimePoint, p Point) Point {
	if role == RolePrice {
		return Point{Time: t, Open: p.Open, High: p.High, Low: p.Low, Close: p.Close}
	}
	return Point{Time: t, Value: p.Value, Category: p.Category}
}

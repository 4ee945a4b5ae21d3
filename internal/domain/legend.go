package domain

// CrosshairState is the transient snapshot of one pointer-move dispatch.
// A nil Time means the cursor has left every pane.
type CrosshairState struct {
	Time    *TimePoint
	Source  PaneID
	Pointer *ScreenPoint
}

// HighlightState names the overlay series nearest the cursor, or "" for none.
type HighlightState struct {
	Series string `json:"series,omitempty"`
}

// LegendModel holds the resolved series values for one crosshair position,
// keyed by pane. Series without data at Time are absent, never zero-filled.
type LegendModel struct {
	Time   *TimePoint
	Source PaneID
	Values [NumPanes]map[string]Point
}

// NewLegendModel returns an empty model for t.
func NewLegendModel(t TimePoint, source PaneID) LegendModel {
	m := LegendModel{Time: &t, Source: source}
	for i := range m.Values {
		m.Values[i] = make(map[string]Point)
	}
	return m
}

// Cleared reports whether the model represents "cursor left all panes".
func (m LegendModel) Cleared() bool {
	return m.Time == nil
}

// Lookup returns the resolved value of a series on a pane.
func (m LegendModel) Lookup(pane PaneID, name string) (Point, bool) {
	if !pane.Valid() || m.Values[pane] == nil {
		return Point{}, false
	}
	p, ok := m.Values[pane][name]
	return p, ok
}

// LabeledValue is one formatted number in a legend row.
type LabeledValue struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// LegendRow is one entry the UI renders in a pane legend.
type LegendRow struct {
	Series     string         `json:"series"`
	Label      string         `json:"label"`
	Color      string         `json:"color"`
	Values     []LabeledValue `json:"values,omitempty"`
	NoData     bool           `json:"no_data,omitempty"`
	Emphasized bool           `json:"emphasized,omitempty"`
}

// DisplayPane is the legend of one pane.
type DisplayPane struct {
	Pane    PaneID      `json:"pane"`
	Visible bool        `json:"visible"`
	Rows    []LegendRow `json:"rows,omitempty"`
}

// DisplayModel is the flat projection handed to the UI shell.
type DisplayModel struct {
	Time        string                `json:"time,omitempty"`
	Highlighted string                `json:"highlighted,omitempty"`
	Panes       [NumPanes]DisplayPane `json:"panes"`
}

// Empty reports whether no pane has anything to show.
func (d DisplayModel) Empty() bool {
	for _, p := range d.Panes {
		if p.Visible || len(p.Rows) > 0 {
			return false
		}
	}
	return d.Time == "" && d.Highlighted == ""
}

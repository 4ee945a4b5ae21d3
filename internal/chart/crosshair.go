package chart

import (
	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// CrosshairResolver turns one pointer position into the values of every
// registered series at the hovered time.
type CrosshairResolver struct{}

// Resolve builds the LegendModel for the pointer-move described by state.
//
// Values the source pane rendered under the cursor are taken from
// sourceValues. Every other series, including source series the payload
// omitted, is looked up by exact timestamp in its dataset. Both paths are
// normalized the same way. A nil state.Time yields a cleared model.
func (CrosshairResolver) Resolve(reg *Registry, state domain.CrosshairState, sourceValues map[ports.SeriesHandle]domain.Point) domain.LegendModel {
	if state.Time == nil {
		return domain.LegendModel{Source: state.Source}
	}
	t := *state.Time
	model := domain.NewLegendModel(t, state.Source)

	for _, id := range domain.AllPanes {
		for _, rs := range reg.Series(id) {
			if p, ok := resolveOne(rs, id == state.Source, t, sourceValues); ok {
				model.Values[id][rs.Name] = p
			}
		}
	}
	return model
}

func resolveOne(rs RegisteredSeries, fromSource bool, t domain.TimePoint, sourceValues map[ports.SeriesHandle]domain.Point) (domain.Point, bool) {
	if fromSource {
		if p, ok := sourceValues[rs.Handle]; ok {
			return domain.Normalize(rs.Role, t, p), true
		}
	}
	p, ok := rs.Data.At(t)
	if !ok {
		return domain.Point{}, false
	}
	return domain.Normalize(rs.Role, t, p), true
}

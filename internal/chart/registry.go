package chart

import (
	"context"
	"fmt"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// RegisteredSeries ties a dataset series to the handle a pane issued for it.
type RegisteredSeries struct {
	Name   string
	Role   domain.SeriesRole
	Pane   domain.PaneID
	Handle ports.SeriesHandle
	Data   *domain.Series
}

// Registry maps every attached series of every pane. It is built once per
// ChartConfig and never patched: a configuration change tears the old
// registry down and builds a new one.
type Registry struct {
	series   [domain.NumPanes][]RegisteredSeries
	byHandle [domain.NumPanes]map[ports.SeriesHandle]int
	byName   [domain.NumPanes]map[string]int
}

func newRegistry() *Registry {
	r := &Registry{}
	for i := range r.byHandle {
		r.byHandle[i] = make(map[ports.SeriesHandle]int)
		r.byName[i] = make(map[string]int)
	}
	return r
}

// BuildRegistry creates and fills a pane series for every series of ds that
// cfg selects. A pane that refuses a series is logged and skipped; the
// rest of the chart is still built.
func BuildRegistry(ctx context.Context, panes [domain.NumPanes]ports.Pane, ds *domain.Dataset, logger ports.Logger) *Registry {
	reg := newRegistry()
	if ds == nil {
		return reg
	}
	cfg := ds.Config

	for _, s := range ds.All() {
		if !selected(cfg, s) {
			continue
		}
		paneID := s.Pane()
		pane := panes[paneID]
		if pane == nil {
			continue
		}

		style := ports.StyleOptions{LineWidth: 1, Title: s.Name}
		switch s.Role {
		case domain.RolePrice:
			style.Color = candlesColor
		case domain.RoleOverlayAverage, domain.RoleBand:
			style.Color = averageColor(cfg, s.Name)
		case domain.RoleOscillator:
			style = oscillatorStyle(cfg, s.Name)
		}

		handle, err := pane.CreateSeries(s.Role, style)
		if err != nil {
			logger.Warn(ctx, "Skipping series: pane refused creation", map[string]interface{}{
				"pane": paneID.String(), "series": s.Name, "error": err.Error(),
			})
			continue
		}
		if err := pane.SetData(handle, s.Points); err != nil {
			logger.Warn(ctx, "Skipping series: pane refused data", map[string]interface{}{
				"pane": paneID.String(), "series": s.Name, "error": err.Error(),
			})
			if rmErr := pane.RemoveSeries(handle); rmErr != nil {
				logger.Debug(ctx, "Failed to remove half-created series", map[string]interface{}{"series": s.Name, "error": rmErr.Error()})
			}
			continue
		}

		reg.add(RegisteredSeries{Name: s.Name, Role: s.Role, Pane: paneID, Handle: handle, Data: s})
	}

	logger.Debug(ctx, "Series registry built", map[string]interface{}{
		"config": cfg.Key(),
		"price":  len(reg.series[domain.PanePrice]),
		"volume": len(reg.series[domain.PaneVolume]),
		"tech":   len(reg.series[domain.PaneTechnical]),
	})
	return reg
}

func selected(cfg domain.ChartConfig, s *domain.Series) bool {
	switch s.Role {
	case domain.RoleOverlayAverage, domain.RoleBand:
		return cfg.SelectsAverage(s.Name)
	case domain.RoleOscillator:
		return selectsTechnical(cfg, s.Name)
	default:
		return true
	}
}

func (r *Registry) add(rs RegisteredSeries) {
	r.byHandle[rs.Pane][rs.Handle] = len(r.series[rs.Pane])
	r.byName[rs.Pane][rs.Name] = len(r.series[rs.Pane])
	r.series[rs.Pane] = append(r.series[rs.Pane], rs)
}

// Teardown removes every registered series from its pane. Removal errors
// are logged; the registry is emptied regardless so no stale handle survives.
func (r *Registry) Teardown(ctx context.Context, panes [domain.NumPanes]ports.Pane, logger ports.Logger) {
	for _, id := range domain.AllPanes {
		pane := panes[id]
		for _, rs := range r.series[id] {
			if pane == nil {
				break
			}
			if err := pane.RemoveSeries(rs.Handle); err != nil {
				logger.Warn(ctx, "Failed to remove series", map[string]interface{}{
					"pane": id.String(), "series": rs.Name, "error": err.Error(),
				})
			}
		}
		r.series[id] = nil
		r.byHandle[id] = make(map[ports.SeriesHandle]int)
		r.byName[id] = make(map[string]int)
	}
}

// Series returns the series attached to a pane in creation order.
func (r *Registry) Series(pane domain.PaneID) []RegisteredSeries {
	if r == nil || !pane.Valid() {
		return nil
	}
	return r.series[pane]
}

// ByHandle resolves a pane-issued handle.
func (r *Registry) ByHandle(pane domain.PaneID, h ports.SeriesHandle) (RegisteredSeries, bool) {
	if r == nil || !pane.Valid() {
		return RegisteredSeries{}, false
	}
	i, ok := r.byHandle[pane][h]
	if !ok {
		return RegisteredSeries{}, false
	}
	return r.series[pane][i], true
}

// Lookup resolves a series by name on a pane.
func (r *Registry) Lookup(pane domain.PaneID, name string) (RegisteredSeries, bool) {
	if r == nil || !pane.Valid() {
		return RegisteredSeries{}, false
	}
	i, ok := r.byName[pane][name]
	if !ok {
		return RegisteredSeries{}, false
	}
	return r.series[pane][i], true
}

// Len returns the number of registered series across all panes.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.series {
		n += len(s)
	}
	return n
}

func (r RegisteredSeries) String() string {
	return fmt.Sprintf("%s/%s(%s)", r.Pane, r.Name, r.Role)
}

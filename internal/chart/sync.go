package chart

import (
	"context"
	"fmt"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// Synchronizer copies a visible-range change from one pane to every other pane.
type Synchronizer struct {
	logger ports.Logger
	panes  [domain.NumPanes]ports.Pane
	guard  PropagationGuard
}

// NewSynchronizer creates a synchronizer with no panes registered.
func NewSynchronizer(logger ports.Logger) *Synchronizer {
	return &Synchronizer{logger: logger}
}

// Register adds a pane as a propagation target.
func (s *Synchronizer) Register(p ports.Pane) error {
	id := p.ID()
	if !id.Valid() {
		return fmt.Errorf("register pane %d: %w", id, ports.ErrInvalidRequest)
	}
	if s.panes[id] != nil {
		return fmt.Errorf("register pane %s: %w", id, ports.ErrDuplicatePane)
	}
	s.panes[id] = p
	return nil
}

// OnRangeChange applies r to every registered pane except source.
// Unsettled ranges are ignored, and a call made while another propagation
// is in flight is dropped: panes re-fire their own change notification
// when set programmatically. It reports whether the range was propagated.
func (s *Synchronizer) OnRangeChange(ctx context.Context, source domain.PaneID, r *domain.VisibleRange) bool {
	if r == nil || !r.Valid() {
		return false
	}
	if !s.guard.TryAcquire() {
		s.logger.Debug(ctx, "Range change dropped: propagation in flight", map[string]interface{}{
			"source": source.String(), "from": int64(r.From), "to": int64(r.To),
		})
		return false
	}
	defer s.guard.Release()

	for _, id := range domain.AllPanes {
		if id == source || s.panes[id] == nil {
			continue
		}
		s.apply(ctx, s.panes[id], *r)
	}
	return true
}

// apply sets the range on one target, containing any failure to that pane.
func (s *Synchronizer) apply(ctx context.Context, p ports.Pane, r domain.VisibleRange) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error(ctx, fmt.Errorf("%w: %v", ports.ErrPaneUnready, rec), "Pane panicked while setting visible range",
				map[string]interface{}{"pane": p.ID().String()})
		}
	}()
	if err := p.SetVisibleRange(r); err != nil {
		s.logger.Warn(ctx, "Failed to apply visible range to pane", map[string]interface{}{
			"pane": p.ID().String(), "error": err.Error(),
		})
	}
}

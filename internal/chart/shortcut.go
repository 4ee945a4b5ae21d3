package chart

import (
	"context"
	"fmt"
	"math"

	"stockMatrix/internal/domain"
	"stockMatrix/internal/ports"
)

// ShortcutController turns a "last N units" selection into an absolute
// visible range on the primary pane. It never touches the other panes:
// the primary pane's own change notification reaches the Synchronizer.
type ShortcutController struct {
	primary ports.Pane
	clock   ports.Clock
	logger  ports.Logger
}

// NewShortcutController creates a controller driving primary.
func NewShortcutController(primary ports.Pane, clock ports.Clock, logger ports.Logger) *ShortcutController {
	if clock == nil {
		clock = ports.SystemClock
	}
	return &ShortcutController{primary: primary, clock: clock, logger: logger}
}

// Apply sets the primary pane to the window described by s.
// UnitAll fits all data. Months and years use 30 and 365 days.
func (c *ShortcutController) Apply(ctx context.Context, s domain.Shortcut) error {
	if c.primary == nil {
		return fmt.Errorf("apply shortcut: %w", ports.ErrPaneNotWired)
	}
	if s.Unit == domain.UnitAll {
		if err := c.primary.FitContent(); err != nil {
			return fmt.Errorf("apply shortcut %q: %w", s.Unit, err)
		}
		c.logger.Debug(ctx, "Shortcut applied", map[string]interface{}{"unit": string(s.Unit)})
		return nil
	}

	r, err := ShortcutRange(s, domain.TimePointOf(c.clock.Now()))
	if err != nil {
		return err
	}
	if err := c.primary.SetVisibleRange(r); err != nil {
		return fmt.Errorf("apply shortcut %d %s: %w", s.Count, s.Unit, err)
	}
	c.logger.Debug(ctx, "Shortcut applied", map[string]interface{}{
		"unit": string(s.Unit), "count": s.Count, "from": int64(r.From), "to": int64(r.To),
	})
	return nil
}

// ShortcutRange computes the window ending at now for a bounded shortcut.
func ShortcutRange(s domain.Shortcut, now domain.TimePoint) (domain.VisibleRange, error) {
	secs, ok := s.Unit.Seconds()
	if !ok {
		return domain.VisibleRange{}, fmt.Errorf("shortcut unit %q: %w", s.Unit, ports.ErrInvalidRequest)
	}
	if s.Count < 1 || int64(s.Count) > math.MaxInt64/secs {
		return domain.VisibleRange{}, fmt.Errorf("shortcut count %d: %w", s.Count, ports.ErrInvalidRequest)
	}
	span := int64(s.Count) * secs
	if int64(now) < math.MinInt64+span {
		return domain.VisibleRange{}, fmt.Errorf("shortcut %d %s before %d: %w", s.Count, s.Unit, now, ports.ErrInvalidRequest)
	}
	return domain.VisibleRange{From: now - domain.TimePoint(span), To: now}, nil
}

// ShortcutsForInterval returns the shortcut menu offered for a chart interval.
func ShortcutsForInterval(interval string) []domain.Shortcut {
	switch interval {
	case "1d":
		return []domain.Shortcut{
			{Label: "1D", Unit: domain.UnitDay, Count: 1},
			{Label: "5D", Unit: domain.UnitDay, Count: 5},
			{Label: "1M", Unit: domain.UnitMonth, Count: 1},
			{Label: "3M", Unit: domain.UnitMonth, Count: 3},
			{Label: "6M", Unit: domain.UnitMonth, Count: 6},
			{Label: "1Y", Unit: domain.UnitYear, Count: 1},
			{Label: "5Y", Unit: domain.UnitYear, Count: 5},
			{Label: "All", Unit: domain.UnitAll},
		}
	case "1m", "5m", "15m", "30m", "60m":
		return []domain.Shortcut{
			{Label: "15min", Unit: domain.UnitMinute, Count: 15},
			{Label: "30min", Unit: domain.UnitMinute, Count: 30},
			{Label: "1hr", Unit: domain.UnitHour, Count: 1},
			{Label: "2hr", Unit: domain.UnitHour, Count: 2},
			{Label: "4hr", Unit: domain.UnitHour, Count: 4},
			{Label: "1D", Unit: domain.UnitDay, Count: 1},
			{Label: "All", Unit: domain.UnitAll},
		}
	default:
		return []domain.Shortcut{
			{Label: "1M", Unit: domain.UnitMonth, Count: 1},
			{Label: "3M", Unit: domain.UnitMonth, Count: 3},
			{Label: "6M", Unit: domain.UnitMonth, Count: 6},
			{Label: "1Y", Unit: domain.UnitYear, Count: 1},
			{Label: "All", Unit: domain.UnitAll},
		}
	}
}

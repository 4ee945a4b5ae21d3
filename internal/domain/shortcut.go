package domain

// ShortcutUnit is the step of a time-range shortcut.
type ShortcutUnit string

const (
	UnitMinute ShortcutUnit = "minute"
	UnitHour   ShortcutUnit = "hour"
	UnitDay    ShortcutUnit = "day"
	UnitMonth  ShortcutUnit = "month"
	UnitYear   ShortcutUnit = "year"
	UnitAll    ShortcutUnit = "all"
)

// Seconds returns the calendar approximation of the unit: months are 30
// days and years 365 days. The second result is false for UnitAll and
// unknown units.
func (u ShortcutUnit) Seconds() (int64, bool) {
	switch u {
	case UnitMinute:
		return 60, true
	case UnitHour:
		return 3600, true
	case UnitDay:
		return 86400, true
	case UnitMonth:
		return 30 * 86400, true
	case UnitYear:
		return 365 * 86400, true
	default:
		return 0, false
	}
}

// Shortcut is a "last Count Units" selection of the time-range control.
type Shortcut struct {
	Label string       `json:"label,omitempty" yaml:"label,omitempty"`
	Unit  ShortcutUnit `json:"step" yaml:"step"`
	Count int          `json:"count,omitempty" yaml:"count,omitempty"`
}

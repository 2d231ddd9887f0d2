package trainer

import (
	"fmt"
	"math"
	"strings"
)

// Mode is the direction in which a monitored metric improves.
type Mode string

const (
	ModeOff Mode = "off"
	ModeMin Mode = "min"
	ModeMax Mode = "max"
)

// Monitor selects the metric that decides the best checkpoint and early
// stopping.
type Monitor struct {
	Mode   Mode
	Metric string
}

// MonitorOff disables monitoring.
var MonitorOff = Monitor{Mode: ModeOff}

// ParseMonitor parses "off" or "<min|max> <metric>". "off" is matched
// literally; nothing else about it is inspected.
func ParseMonitor(s string) (Monitor, error) {
	if s == string(ModeOff) {
		return MonitorOff, nil
	}
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return Monitor{}, fmt.Errorf("must be \"off\" or \"<min|max> <metric>\", got %q", s)
	}
	mode := Mode(parts[0])
	if mode != ModeMin && mode != ModeMax {
		return Monitor{}, fmt.Errorf("mode must be min or max, got %q", parts[0])
	}
	return Monitor{Mode: mode, Metric: parts[1]}, nil
}

// Enabled reports whether a metric is monitored.
func (m Monitor) Enabled() bool {
	return m.Mode == ModeMin || m.Mode == ModeMax
}

// Worst is the starting best value: nothing compares worse than it.
func (m Monitor) Worst() float64 {
	if m.Mode == ModeMax {
		return math.Inf(-1)
	}
	return math.Inf(1)
}

// Improved reports whether value is strictly better than best.
func (m Monitor) Improved(value, best float64) bool {
	switch m.Mode {
	case ModeMin:
		return value < best
	case ModeMax:
		return value > best
	}
	return false
}

func (m Monitor) String() string {
	if !m.Enabled() {
		return string(ModeOff)
	}
	return string(m.Mode) + " " + m.Metric
}

package calculation

import (
	"github.com/shopspring/decimal"

	"github.com/finlife/lifesim/internal/domain"
)

// TraceRecorder accumulates per-phase variable snapshots for diagnostic
// output. A disabled recorder drops everything, so call sites never need to
// guard.
type TraceRecorder struct {
	enabled bool
	events  []domain.TraceEvent
}

func NewTraceRecorder(enabled bool) *TraceRecorder {
	return &TraceRecorder{enabled: enabled}
}

func (t *TraceRecorder) Record(year int, phase, variable string, value decimal.Decimal, context string) {
	if !t.enabled {
		return
	}
	t.events = append(t.events, domain.TraceEvent{
		Year:     year,
		Phase:    phase,
		Variable: variable,
		Value:    value.StringFixed(2),
		Context:  context,
	})
}

func (t *TraceRecorder) Events() []domain.TraceEvent { return t.events }

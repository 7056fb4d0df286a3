package metrics

// Collector records the service's operational metrics
type Collector interface {
	// RecordNotification records the outcome of a single send attempt
	RecordNotification(sender string, success bool)

	// RecordChanges records how many change records of a kind were processed
	RecordChanges(kind string, count int)

	// RecordBatch records the overall result of a processed change batch
	RecordBatch(success bool)

	// RecordReaped records how many expired heartbeats the reaper deleted
	RecordReaped(count int)

	// RecordRegistration records the outcome of a registration request
	RecordRegistration(success bool)
}

// Nop discards all metrics.
type Nop struct{}

// Compile-time assertion that Nop implements Collector.
var _ Collector = Nop{}

// NewNop creates a new no-op collector
func NewNop() Nop {
	return Nop{}
}

func (Nop) RecordNotification(_ string, _ bool) {}
func (Nop) RecordChanges(_ string, _ int)       {}
func (Nop) RecordBatch(_ bool)                  {}
func (Nop) RecordReaped(_ int)                  {}
func (Nop) RecordRegistration(_ bool)           {}

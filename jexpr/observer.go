package jexpr

import "time"

// Observer receives engine events. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveParse(cached bool, err error, d time.Duration)
	ObserveEvaluation(err error, steps int, d time.Duration)
	ObserveRegistrySwap(version string, functions int)
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) ObserveParse(bool, error, time.Duration)     {}
func (NopObserver) ObserveEvaluation(error, int, time.Duration) {}
func (NopObserver) ObserveRegistrySwap(string, int)             {}

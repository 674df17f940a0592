package metrics

import "time"

// LookupResult enumerates cache probe outcomes.
type LookupResult string

const (
	LookupHit  LookupResult = "hit"
	LookupMiss LookupResult = "miss"
)

// Outcome enumerates final render outcomes.
type Outcome string

const (
	OutcomeServed   Outcome = "served"
	OutcomeBuilt    Outcome = "built"
	OutcomeBypassed Outcome = "bypassed"
	OutcomeFailed   Outcome = "failed"
)

// Recorder defines observability hooks for rendering and caching.
type Recorder interface {
	IncCacheLookup(kind string, result LookupResult)
	IncCacheWriteFailure(kind string)
	ObserveBuildDuration(kind string, d time.Duration)
	IncRenderOutcome(kind string, outcome Outcome)
	ObserveAssetScan(suffix string, d time.Duration, files int)
	AddCacheEntriesRemoved(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncCacheLookup(string, LookupResult)         {}
func (NoopRecorder) IncCacheWriteFailure(string)                 {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)  {}
func (NoopRecorder) IncRenderOutcome(string, Outcome)            {}
func (NoopRecorder) ObserveAssetScan(string, time.Duration, int) {}
func (NoopRecorder) AddCacheEntriesRemoved(int)                  {}

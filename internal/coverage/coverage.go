// Package coverage defines the Coverage Instrumenter/Collector contract
// the Executor consults before evaluating a module's source, plus two
// minimal implementations (a no-op default and a line-counting collector)
// since the real instrumenter is an external collaborator out of scope
// for this core.
package coverage

// Collector is consulted by the Executor once per module evaluation when
// coverage collection is enabled for that file.
type Collector interface {
	// GetInstrumentedSource returns source rewritten to record coverage
	// into the named sink, or the input unchanged if this collector does
	// no instrumentation.
	GetInstrumentedSource(filename, source, sinkName string) string

	// ExtractRuntimeCoverageInfo pulls accumulated coverage data out of a
	// sink after evaluation, in whatever shape the collector tracks it.
	ExtractRuntimeCoverageInfo(sinkName string) interface{}

	// RecordHit is called once per instrumented line as it executes; the
	// Executor binds it onto the environment's global object under the
	// name GetInstrumentedSource's calls invoke.
	RecordHit(sinkName string, line int)
}

// Factory produces a Collector, mirroring the spec's
// getCoverageDataStore()-style collaborator entry point.
type Factory interface {
	GetCoverageDataStore() Collector
}

// NoopCollector performs no instrumentation; evaluation proceeds against
// the unmodified source and coverage queries always report nothing
// collected. This is the default when CollectCoverage is false.
type NoopCollector struct{}

func (NoopCollector) GetInstrumentedSource(_, source, _ string) string { return source }

func (NoopCollector) ExtractRuntimeCoverageInfo(_ string) interface{} { return nil }

func (NoopCollector) RecordHit(_ string, _ int) {}

// NoopFactory always returns a NoopCollector.
type NoopFactory struct{}

func (NoopFactory) GetCoverageDataStore() Collector { return NoopCollector{} }

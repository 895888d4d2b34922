package coverage

import (
	"fmt"
	"strings"
	"sync"
)

// FileCoverage is the minimal per-file count a SourceCollector tracks:
// how many times each source line was entered during evaluation.
type FileCoverage struct {
	Filename  string
	LineHits  map[int]int
	LineCount int
}

// SourceCollector instruments a module by prefixing every non-blank line
// with a call that bumps a per-line counter into a sink identified by
// name, then exposes the accumulated counts back to the caller. It is a
// deliberately simple statement counter, not a full branch/function
// instrumenter — the real instrumenter is an external collaborator.
type SourceCollector struct {
	mu    sync.Mutex
	sinks map[string]*FileCoverage
}

// NewSourceCollector builds an empty collector ready to instrument files.
func NewSourceCollector() *SourceCollector {
	return &SourceCollector{sinks: make(map[string]*FileCoverage)}
}

func (c *SourceCollector) GetInstrumentedSource(filename, source, sinkName string) string {
	lines := strings.Split(source, "\n")

	c.mu.Lock()
	c.sinks[sinkName] = &FileCoverage{
		Filename:  filename,
		LineHits:  make(map[int]int),
		LineCount: len(lines),
	}
	c.mu.Unlock()

	var out strings.Builder
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			out.WriteString(fmt.Sprintf("__cov_hit(%q,%d);", sinkName, i+1))
		}
		out.WriteString(line)
		if i != len(lines)-1 {
			out.WriteString("\n")
		}
	}
	return out.String()
}

// RecordHit is the Go-side target a bound __cov_hit global calls into;
// the Executor wires it onto the environment's global object before
// running instrumented source.
func (c *SourceCollector) RecordHit(sinkName string, line int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fc, ok := c.sinks[sinkName]; ok {
		fc.LineHits[line]++
	}
}

func (c *SourceCollector) ExtractRuntimeCoverageInfo(sinkName string) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	fc, ok := c.sinks[sinkName]
	if !ok {
		return nil
	}
	covered := make(map[int]int, len(fc.LineHits))
	for line, hits := range fc.LineHits {
		covered[line] = hits
	}
	return &FileCoverage{Filename: fc.Filename, LineHits: covered, LineCount: fc.LineCount}
}

// SourceFactory always returns the same SourceCollector so coverage
// accumulates across every module evaluated through one Loader.
type SourceFactory struct {
	collector *SourceCollector
}

func NewSourceFactory() *SourceFactory {
	return &SourceFactory{collector: NewSourceCollector()}
}

func (f *SourceFactory) GetCoverageDataStore() Collector { return f.collector }

package clustersetup

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/couchbase/couchdb-cluster-setup/format"
	"github.com/couchbase/couchdb-cluster-setup/topology"
)

// Phase identifies a step of a formation run.
type Phase string

const (
	PhasePreflight    Phase = "preflight"
	PhaseEnable       Phase = "enable"
	PhaseEnableRemote Phase = "enable_remote"
	PhaseAddNode      Phase = "add_node"
	PhaseFinish       Phase = "finish"
	PhaseVerify       Phase = "verify"
)

// PhaseResult is the pass/fail outcome of a single phase for a single node.
type PhaseResult struct {
	Phase  Phase
	Node   topology.Node
	Passed bool

	// Reason explains a failure, it's the reason given by the node when one was available.
	Reason string

	Duration time.Duration
}

func (p PhaseResult) String() string {
	status := "PASS"
	if !p.Passed {
		status = "FAIL"
	}

	line := fmt.Sprintf("%s %-13s %s (%s)", status, p.Phase, p.Node, format.Duration(p.Duration))
	if p.Reason != "" {
		line += ": " + p.Reason
	}

	return line
}

// Report is the user visible record of a formation run.
type Report struct {
	// RunID uniquely identifies the run in the logs.
	RunID string

	Topology string
	Started  time.Time
	Duration time.Duration

	lock    sync.Mutex
	results []PhaseResult
}

// newReport returns an empty report for a run which is starting now.
func newReport(runID string, topology *topology.Topology) *Report {
	return &Report{RunID: runID, Topology: topology.String(), Started: time.Now()}
}

// add records the result of a phase, safe to call from multiple goroutines.
func (r *Report) add(result PhaseResult) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.results = append(r.results, result)
}

// finish records the total duration of the run.
func (r *Report) finish() {
	r.Duration = time.Since(r.Started)
}

// Results returns every recorded result, in the order they were recorded.
func (r *Report) Results() []PhaseResult {
	r.lock.Lock()
	defer r.lock.Unlock()

	return append([]PhaseResult(nil), r.results...)
}

// Passed returns a boolean indicating whether every recorded result passed.
func (r *Report) Passed() bool {
	for _, result := range r.Results() {
		if !result.Passed {
			return false
		}
	}

	return true
}

// Phase returns the results recorded for the given phase.
func (r *Report) Phase(phase Phase) []PhaseResult {
	filtered := make([]PhaseResult, 0)

	for _, result := range r.Results() {
		if result.Phase == phase {
			filtered = append(filtered, result)
		}
	}

	return filtered
}

// WriteSummary writes a human readable line per result followed by the overall outcome.
func (r *Report) WriteSummary(writer io.Writer) error {
	for _, result := range r.Results() {
		if _, err := fmt.Fprintln(writer, result); err != nil {
			return err
		}
	}

	outcome := "formed"
	if !r.Passed() {
		outcome = "failed"
	}

	_, err := fmt.Fprintf(writer, "Cluster %s %s in %s (run %s)\n", r.Topology, outcome, format.Duration(r.Duration),
		r.RunID)

	return err
}

package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/groundhog/internal/query"
)

// TraceSnapshot captures a scenario execution for golden comparison: the
// verdict, the groundings, and the full event stream. Serialization is
// deterministic (fixed field order, sorted grounding keys, fixed run
// token), so the golden bytes pin the engine's observable behavior.
type TraceSnapshot struct {
	Scenario   string              `json:"scenario"`
	RunToken   string              `json:"run_token,omitempty"`
	Satisfied  bool                `json:"satisfied"`
	Groundings []map[string]string `json:"groundings,omitempty"`
	Trace      []query.TraceEvent  `json:"trace"`
}

// snapshotOf builds the golden form of a result. The run token comes
// from the trace itself, so the snapshot records the effective token
// even when the scenario relied on the default.
func snapshotOf(name string, result *Result) TraceSnapshot {
	snapshot := TraceSnapshot{
		Scenario:   name,
		Satisfied:  result.Satisfied,
		Groundings: result.Groundings,
		Trace:      result.Trace,
	}
	if len(result.Trace) > 0 {
		snapshot.RunToken = result.Trace[0].Token
	}
	return snapshot
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if scenario execution fails; golden drift fails the
// test through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-obtained result against the golden
// file for the given scenario name.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := json.MarshalIndent(snapshotOf(scenarioName, result), "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

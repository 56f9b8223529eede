package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/modellist/internal/engine"
	"github.com/roach88/modellist/internal/value"
)

// TraceSnapshot is the golden form of a scenario run.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	RunToken     string         `json:"run_token,omitempty"`
	Trace        []engine.Event `json:"trace"`
	Items        []any          `json:"items"`
}

// toCanonicalMap converts the snapshot to a tree object, since
// value.MarshalCanonical only encodes tree values.
func (s *TraceSnapshot) toCanonicalMap() value.Object {
	trace := make(value.Array, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = ev.ToMap(true)
	}

	m := value.Object{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"items":         value.Array(s.Items),
	}
	if s.RunToken != "" {
		m["run_token"] = s.RunToken
	}
	return m
}

// GoldenBytes returns the canonical JSON golden form of a scenario result.
func GoldenBytes(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunToken:     result.RunToken,
		Trace:        result.Trace,
		Items:        result.Items,
	}
	return value.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := GoldenBytes(scenarioName, result)
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

package harness

import "fmt"

// SuiteResult summarizes a run over a directory of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure records one failed scenario.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Errors   []string `json:"errors"`
}

// RunSuite loads every scenario under dir and runs them in path order.
//
// Scenarios that fail to load or to execute abort the suite with an
// error; expectation failures are collected per scenario instead, so one
// broken scenario never hides the others.
func RunSuite(dir string) (*SuiteResult, error) {
	scenarios, err := LoadScenarioDir(dir)
	if err != nil {
		return nil, err
	}

	suite := &SuiteResult{}
	for _, scenario := range scenarios {
		suite.Total++
		result, err := Run(scenario)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		if !result.Pass {
			suite.Failed++
			suite.Failures = append(suite.Failures, ScenarioFailure{
				Scenario: scenario.Name,
				Errors:   result.Errors,
			})
			continue
		}
		suite.Passed++
	}
	return suite, nil
}

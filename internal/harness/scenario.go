package harness

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a graph to build, a query
// to run against it, and the expected outcome. Scenarios are the
// executable form of the engine's behavioral contract; each one runs in a
// fresh in-memory store with a deterministic run token, so the recorded
// trace is reproducible byte for byte.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are stored
	// under this name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph lists fact literals interned into the store before the query
	// runs, in order. Insertion order is part of the contract: candidate
	// enumeration follows it.
	Graph []any `yaml:"graph"`

	// Query is the pattern to ground against the graph.
	Query QuerySpec `yaml:"query"`

	// Expect describes the expected outcome.
	Expect Expectation `yaml:"expect"`

	// RunToken is an optional fixed run token for the trace. Empty
	// defaults to "test-run-default" so golden files stay stable.
	RunToken string `yaml:"run_token,omitempty"`
}

// QuerySpec is the query section of a scenario, mirroring a query
// request: declared variables, mandatory clauses, optional clauses.
type QuerySpec struct {
	// Vars declares the query's variables ("$x", "$y", ...).
	Vars []string `yaml:"vars"`

	// Find lists the mandatory clause literals. Evaluatable clauses
	// (GreaterThan, Evaluation, ...) become virtual clauses.
	Find []any `yaml:"find"`

	// Optional lists clause literals that are grounded when present but
	// never required.
	Optional []any `yaml:"optional,omitempty"`

	// MaxResults caps enumeration. Zero enumerates every grounding.
	MaxResults int `yaml:"max_results,omitempty"`
}

// Expectation describes the outcome a scenario asserts on.
type Expectation struct {
	// Satisfied is the expected overall verdict. Required; a scenario
	// that expects failure states it explicitly.
	Satisfied *bool `yaml:"satisfied"`

	// Groundings lists the expected results, one map of variable name to
	// rendered term per grounding, e.g. {$x: "(Concept cat)"}. Matching
	// ignores order; nil skips the check entirely, an empty list asserts
	// no groundings.
	Groundings []map[string]string `yaml:"groundings,omitempty"`

	// MaxSteps bounds the run's step budget. Zero leaves the run
	// unbounded; a run that exhausts the budget fails the scenario.
	MaxSteps int `yaml:"max_steps,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "option:" vs "optional:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every scenario under dir (recursively), matching
// .yaml and .yml files. Scenarios are returned sorted by path so suite
// runs are deterministic, and scenario names must be unique across the
// directory since golden files are keyed by name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scenario directory: %w", err)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, path := range paths {
		scenario, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if prev, ok := seen[scenario.Name]; ok {
			return nil, fmt.Errorf("%s: duplicate scenario name %q (also in %s)", path, scenario.Name, prev)
		}
		seen[scenario.Name] = path
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Query.Vars) == 0 {
		return fmt.Errorf("query.vars list is required and must be non-empty")
	}
	for i, v := range s.Query.Vars {
		if !strings.HasPrefix(v, "$") {
			return fmt.Errorf("query.vars[%d]: variable %q must start with $", i, v)
		}
	}

	if len(s.Query.Find)+len(s.Query.Optional) == 0 {
		return fmt.Errorf("query needs at least one find or optional clause")
	}

	if s.Query.MaxResults < 0 {
		return fmt.Errorf("query.max_results must be non-negative")
	}

	if s.Expect.Satisfied == nil {
		return fmt.Errorf("expect.satisfied is required")
	}

	if s.Expect.MaxSteps < 0 {
		return fmt.Errorf("expect.max_steps must be non-negative")
	}

	declared := make(map[string]bool, len(s.Query.Vars))
	for _, v := range s.Query.Vars {
		declared[v] = true
	}
	for i, grounding := range s.Expect.Groundings {
		if len(grounding) == 0 {
			return fmt.Errorf("expect.groundings[%d]: grounding must not be empty", i)
		}
		for name := range grounding {
			if !declared[name] {
				return fmt.Errorf("expect.groundings[%d]: variable %q is not declared in query.vars", i, name)
			}
		}
	}

	return nil
}

// Package harness provides conformance testing for the query engine.
//
// The harness builds a graph from fact literals, runs a query against
// it, and validates the outcome and the recorded search trace as
// executable contract tests.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	graph:
//	  - [Inheritance, cat, animal]
//	  - [Member, 3, Foo]
//	query:
//	  vars: [$x]
//	  find:
//	    - [Inheritance, $x, animal]
//	  optional:
//	    - [Member, $x, Foo]
//	expect:
//	  satisfied: true
//	  groundings:
//	    - {$x: "(Concept cat)"}
//
// Clause literals use the shared grammar: bare strings are Concept
// nodes, "$"-prefixed strings are variables, numbers are Number nodes,
// and [TypeName, ...] lists build terms of the named type. Evaluatable
// clauses in find (GreaterThan, LessThan, Equal, Evaluation) become
// virtual clauses.
//
// # Expectations
//
// expect.satisfied states the required overall verdict. An optional
// expect.groundings lists the required results; matching ignores
// discovery order, but every listed grounding must occur exactly once
// and no extra result may remain. expect.max_steps bounds the run's
// step budget; a run that exhausts it fails the scenario while keeping
// its partial trace.
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory store, a fresh trace clock, and a
// fixed run token (scenario.run_token, or "test-run-default"), so the
// recorded trace is identical across runs. RunWithGolden pins the full
// snapshot (verdict, groundings, trace) against files under
// testdata/golden via goldie; regenerate with:
//
//	go test ./internal/harness -update
//
// # Usage
//
// Load and run a scenario:
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/members.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
//
// RunSuite runs a whole directory and reports per-scenario failures.
package harness

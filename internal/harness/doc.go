// Package harness runs end-to-end wordlist scenarios.
//
// A scenario embeds a configuration document, runs it through the whole
// pipeline (config, field parsing, product enumeration and the concurrent
// generator) into an in-memory sink, and checks the outcome against
// assertions and, optionally, a golden file of the expected words.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: literal_pattern
//	description: "Literal field followed by a digit class"
//	format: yaml            # or cue; defaults to yaml
//	workers: 3              # optional, defaults to 4
//	config: |
//	  parts:
//	    - "x,y"
//	    - pattern: "[1-3]"
//	assertions:
//	  - type: total
//	    count: 6
//	  - type: contains
//	    words: [x1, y3]
//	  - type: order
//	    words: [x1, x2, y1]
//
// # Assertion Types
//
//   - total: the run produced exactly count words, each index once
//   - contains: every listed word was emitted
//   - order: the listed words appear in this relative order by index
//   - error: the run failed with the given error code
//
// # Golden Files
//
// RunWithGolden compares the words, in index order and one per line,
// against golden/<name>.golden in the scenario directory. Regenerate with:
//
//	go test ./internal/harness -update
package harness

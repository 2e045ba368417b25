package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir holds the package's golden files.
const GoldenDir = "testdata/scenarios/golden"

// RunWithGolden executes a scenario and compares its words against a
// golden file stored in testdata/scenarios/golden/{scenario.Name}.golden,
// the layout `crunch test` expects next to scenario files.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also inspect assertions.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Wordlist(result.Words))
}

// Wordlist renders words one per line, newline terminated.
func Wordlist(words []string) []byte {
	if len(words) == 0 {
		return nil
	}
	return []byte(strings.Join(words, "\n") + "\n")
}

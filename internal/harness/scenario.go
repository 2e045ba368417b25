package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario represents one end-to-end generation test case.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Format      string      `yaml:"format,omitempty"`
	Workers     int         `yaml:"workers,omitempty"`
	Config      string      `yaml:"config"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Assertion is a check against the outcome of a scenario.
type Assertion struct {
	Type  string   `yaml:"type"`
	Count uint64   `yaml:"count,omitempty"`
	Words []string `yaml:"words,omitempty"`
	Code  string   `yaml:"code,omitempty"`
}

// Assertion types.
const (
	AssertTotal    = "total"
	AssertContains = "contains"
	AssertOrder    = "order"
	AssertError    = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config == "" {
		return fmt.Errorf("config is required")
	}

	switch s.Format {
	case "", "yaml", "cue":
	default:
		return fmt.Errorf("unknown format %q (want yaml or cue)", s.Format)
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTotal:
	case AssertContains:
		if len(a.Words) == 0 {
			return fmt.Errorf("assertions[%d]: words list is required for contains", index)
		}
	case AssertOrder:
		if len(a.Words) < 2 {
			return fmt.Errorf("assertions[%d]: order needs at least two words", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// Package bank defines the Go struct types for the question bank YAML
// document and provides strict YAML parsing.
package bank

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Bank is the top-level document holding an ordered set of exam questions.
type Bank struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=bank/v1"`
	Meta       Meta       `yaml:"meta"       json:"meta"       jsonschema:"required"`
	Questions  []Question `yaml:"questions"  json:"questions"  jsonschema:"required"`
}

// Meta contains bank metadata and session-wide probe configuration.
type Meta struct {
	Name        string      `yaml:"name"                  json:"name" jsonschema:"required"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Probe       *ProbeMeta  `yaml:"probe,omitempty"       json:"probe,omitempty"`
	Aliases     []AliasPair `yaml:"aliases,omitempty"     json:"aliases,omitempty"`
}

// AliasPair maps a short resource token to its canonical form.
type AliasPair struct {
	Short string `yaml:"short" json:"short" jsonschema:"required"`
	Full  string `yaml:"full"  json:"full"  jsonschema:"required"`
}

// ProbeMeta overrides the default probe behavior for this bank.
type ProbeMeta struct {
	Timeout  string            `yaml:"timeout,omitempty"  json:"timeout,omitempty" jsonschema:"pattern=^[0-9]+(ms|s|m)$"`
	Allowed  []string          `yaml:"allowed,omitempty"  json:"allowed,omitempty"`
	Denied   []string          `yaml:"denied,omitempty"   json:"denied,omitempty"`
	Policies map[string]string `yaml:"policies,omitempty" json:"policies,omitempty"`
}

// TimeoutDuration parses Timeout, returning fallback when unset.
func (p *ProbeMeta) TimeoutDuration(fallback time.Duration) time.Duration {
	if p == nil || p.Timeout == "" {
		return fallback
	}
	d, err := time.ParseDuration(p.Timeout)
	if err != nil {
		return fallback
	}
	return d
}

// Question is a single exam task. The prompt and reference fields are
// markdown; checklist entries are required fragments of a complete answer.
type Question struct {
	ID        string     `yaml:"id"                  json:"id"        jsonschema:"required"`
	Prompt    string     `yaml:"prompt"              json:"prompt"    jsonschema:"required"`
	Reference string     `yaml:"reference"           json:"reference" jsonschema:"required"`
	Checklist []string   `yaml:"checklist"           json:"checklist" jsonschema:"required"`
	Notes     []string   `yaml:"notes,omitempty"     json:"notes,omitempty"`
	Mocks     []MockRule `yaml:"mocks,omitempty"     json:"mocks,omitempty"`
}

// MockRule prints a canned output block when its condition holds for the
// finalized answer. When is an expr-lang boolean expression evaluated
// against the answer text (see score.EvaluateMocks).
type MockRule struct {
	When   string `yaml:"when"   json:"when"   jsonschema:"required"`
	Output string `yaml:"output" json:"output" jsonschema:"required"`
}

// LoadFile reads and parses a bank YAML file with strict unknown-field
// rejection (yaml.v3 KnownFields). Returns the parsed Bank or an error.
func LoadFile(path string) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bank: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a bank from an io.Reader with strict unknown-field rejection.
func Load(r io.Reader) (*Bank, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Bank
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("decode bank: %w", err)
	}
	return &b, nil
}

// ByID returns the question with the given ID, or nil.
func (b *Bank) ByID(id string) *Question {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i]
		}
	}
	return nil
}

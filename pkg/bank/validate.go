package bank

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ormasoftchile/kprep/pkg/command"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "questions[3].checklist")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// mockCompileEnv mirrors the env mock conditions run against at session
// time: the lowercased answer text and the has() containment helper. The
// helper is has, not contains: contains is a reserved expr-lang operator.
var mockCompileEnv = map[string]any{
	"answer": "",
	"has":    func(sub string) bool { return false },
}

// validPolicies are the probe policy names accepted in meta.probe.policies.
var validPolicies = map[string]bool{
	"probe":  true,
	"shell":  true,
	"accept": true,
	"skip":   true,
}

// ValidateFile performs the full 3-phase validation pipeline on a bank file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
func ValidateFile(path string) (*Bank, []*ValidationError) {
	var allErrors []*ValidationError

	// Phase 1: structural, strict YAML decode
	b, err := LoadFile(path)
	if err != nil {
		allErrors = append(allErrors, &ValidationError{
			Phase:    "structural",
			Path:     "",
			Message:  err.Error(),
			Severity: "error",
		})
		return nil, allErrors
	}

	// Phase 2: semantic, JSON Schema validation
	allErrors = append(allErrors, validateSemantic(b)...)

	// Phase 3: domain, custom Go rules
	allErrors = append(allErrors, ValidateDomain(b)...)

	if len(allErrors) > 0 {
		return b, allErrors
	}
	return b, nil
}

// validateSemantic validates the bank against the generated JSON Schema.
func validateSemantic(b *Bank) []*ValidationError {
	data, err := json.Marshal(b)
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("marshal for schema validation: %v", err),
			Severity: "error",
		}}
	}

	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("generate schema: %v", err),
			Severity: "error",
		}}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal schema: %v", err),
			Severity: "error",
		}}
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("bank-v1.json", schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("add schema resource: %v", err),
			Severity: "error",
		}}
	}

	sch, err := c.Compile("bank-v1.json")
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("compile schema: %v", err),
			Severity: "error",
		}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal document: %v", err),
			Severity: "error",
		}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain performs Phase 3 domain-level validation.
// Returns a slice of errors; empty means valid.
func ValidateDomain(b *Bank) []*ValidationError {
	var errs []*ValidationError

	if b.APIVersion != "bank/v1" {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "apiVersion",
			Message:  fmt.Sprintf("unrecognized apiVersion %q, expected %q", b.APIVersion, "bank/v1"),
			Severity: "error",
		})
	}

	if len(b.Questions) == 0 {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "questions",
			Message:  "bank has no questions",
			Severity: "error",
		})
	}

	seen := make(map[string]int)
	for i, q := range b.Questions {
		path := fmt.Sprintf("questions[%d]", i)

		if q.ID == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".id",
				Message: "question id is empty", Severity: "error",
			})
		} else if prev, dup := seen[q.ID]; dup {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".id",
				Message:  fmt.Sprintf("duplicate question id %q (first used by questions[%d])", q.ID, prev),
				Severity: "error",
			})
		} else {
			seen[q.ID] = i
		}

		if strings.TrimSpace(q.Prompt) == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".prompt",
				Message: "prompt is empty", Severity: "error",
			})
		}
		if strings.TrimSpace(q.Reference) == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".reference",
				Message: "reference answer is empty", Severity: "error",
			})
		}
		if len(q.Checklist) == 0 {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path + ".checklist",
				Message:  "checklist is empty; answers to this question can never score",
				Severity: "warning",
			})
		}
		for j, item := range q.Checklist {
			if strings.TrimSpace(item) == "" {
				errs = append(errs, &ValidationError{
					Phase: "domain", Path: fmt.Sprintf("%s.checklist[%d]", path, j),
					Message: "checklist item is empty", Severity: "error",
				})
			}
		}

		// Mock conditions must compile as boolean expressions over the
		// session-time env. Evaluation against a real answer happens later.
		for j, m := range q.Mocks {
			if _, err := expr.Compile(m.When, expr.Env(mockCompileEnv), expr.AsBool()); err != nil {
				errs = append(errs, &ValidationError{
					Phase: "domain", Path: fmt.Sprintf("%s.mocks[%d].when", path, j),
					Message:  fmt.Sprintf("condition does not compile: %v", err),
					Severity: "error",
				})
			}
			if m.Output == "" {
				errs = append(errs, &ValidationError{
					Phase: "domain", Path: fmt.Sprintf("%s.mocks[%d].output", path, j),
					Message: "mock output is empty", Severity: "warning",
				})
			}
		}
	}

	if b.Meta.Probe != nil {
		if b.Meta.Probe.Timeout != "" {
			if _, err := time.ParseDuration(b.Meta.Probe.Timeout); err != nil {
				errs = append(errs, &ValidationError{
					Phase: "domain", Path: "meta.probe.timeout",
					Message:  fmt.Sprintf("invalid duration: %v", err),
					Severity: "error",
				})
			}
		}
		for family, policy := range b.Meta.Probe.Policies {
			if !validPolicies[policy] {
				errs = append(errs, &ValidationError{
					Phase: "domain", Path: "meta.probe.policies." + family,
					Message:  fmt.Sprintf("unknown policy %q, expected one of probe, shell, accept, skip", policy),
					Severity: "error",
				})
			}
		}
	}

	// Normalization is applied to already-normalized lines, so an alias must
	// never expand to a token that is itself a shorthand: builtin, bank-
	// supplied, or the "k" tool abbreviation.
	shorts := map[string]bool{"k": true}
	for short := range command.DefaultAliases() {
		shorts[short] = true
	}
	for _, a := range b.Meta.Aliases {
		if a.Short != "" {
			shorts[a.Short] = true
		}
	}

	for i, a := range b.Meta.Aliases {
		path := fmt.Sprintf("meta.aliases[%d]", i)
		if a.Short == "" || a.Full == "" {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path,
				Message: "alias short and full must both be set", Severity: "error",
			})
		}
		if strings.ContainsAny(a.Short, " \t") || strings.ContainsAny(a.Full, " \t") {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path,
				Message: "alias tokens must not contain whitespace", Severity: "error",
			})
		}
		if a.Full != "" && shorts[a.Full] {
			errs = append(errs, &ValidationError{
				Phase: "domain", Path: path,
				Message:  fmt.Sprintf("alias expands to %q, which is itself a shorthand", a.Full),
				Severity: "error",
			})
		}
	}

	return errs
}

// HasErrors reports whether any entry carries error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity != "warning" {
			return true
		}
	}
	return false
}

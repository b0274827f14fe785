// Package command rewrites user-typed command lines into canonical form.
//
// Two token-exact rewrites are applied: the standalone shorthand "k" becomes
// "kubectl", and resource-type abbreviations (deploy, svc, ns, …) become
// their full kind names. A shorthand embedded inside a longer token (a flag
// value like disk=spinning, a path, a name) is never touched.
package command

import "strings"

// toolShorthand is the single-letter abbreviation for the primary tool.
const (
	toolShorthand = "k"
	toolName      = "kubectl"
)

// Aliases maps a short token to the canonical token that replaces it.
type Aliases map[string]string

// DefaultAliases returns the built-in kubectl resource-type shorthands.
func DefaultAliases() Aliases {
	return Aliases{
		"po":     "pod",
		"deploy": "deployment",
		"svc":    "service",
		"ns":     "namespace",
		"no":     "node",
		"sa":     "serviceaccount",
		"cm":     "configmap",
		"pv":     "persistentvolume",
		"pvc":    "persistentvolumeclaim",
		"netpol": "networkpolicy",
		"ing":    "ingress",
		"ds":     "daemonset",
		"sts":    "statefulset",
		"rs":     "replicaset",
		"crb":    "clusterrolebinding",
	}
}

// Normalizer applies the canonicalization rewrites. It is pure: the alias
// table is fixed at construction and never mutated.
type Normalizer struct {
	aliases Aliases
}

// NewNormalizer builds a Normalizer over the given alias table. Extra
// entries override or extend the defaults; pass nil for defaults only.
func NewNormalizer(extra Aliases) *Normalizer {
	aliases := DefaultAliases()
	for short, full := range extra {
		aliases[short] = full
	}
	return &Normalizer{aliases: aliases}
}

// Normalize canonicalizes one input line. Tokens are rewritten in place;
// inter-token separation collapses to single spaces. Idempotent.
func (n *Normalizer) Normalize(line string) string {
	fields := strings.Fields(line)
	for i, tok := range fields {
		if tok == toolShorthand {
			fields[i] = toolName
			continue
		}
		if full, ok := n.aliases[tok]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}

// Tokens splits a normalized line on whitespace. This is the argv used by
// the syntax prober, before any dry-run flag injection.
func Tokens(line string) []string {
	return strings.Fields(line)
}

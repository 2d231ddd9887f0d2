// Package cfgerr defines the typed errors raised while turning an experiment
// configuration into running components.
//
// Every error carries the dotted key path of the offending configuration
// node (e.g. "models.Discriminator.args.side_output_at") so the operator can
// find and fix it. Callers classify errors with errors.As; the resolver and
// loader only ever wrap them with %w.
package cfgerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Path joins configuration key segments into a dotted path, skipping empty
// segments.
func Path(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// UnknownTypeError is returned when a component's type name has no
// registered constructor, or is registered for a different kind of
// component than the one requested.
type UnknownTypeError struct {
	Path string
	Type string
	// Kind is the kind of component the configuration slot expects.
	Kind string
	// RegisteredAs is set when Type exists in the registry under another kind.
	RegisteredAs string
}

func (e *UnknownTypeError) Error() string {
	if e.RegisteredAs != "" {
		return fmt.Sprintf("%s: type %q is registered as %s, not %s", e.Path, e.Type, e.RegisteredAs, e.Kind)
	}
	return fmt.Sprintf("%s: unknown %s type %q", e.Path, e.Kind, e.Type)
}

// MissingArgumentError is returned when a required constructor argument
// without a default is absent from a component's args.
type MissingArgumentError struct {
	Path string
	Type string
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%s: missing required argument %q for type %q", e.Path, e.Name, e.Type)
}

// UnexpectedArgumentError is returned when a component's args contain a key
// its constructor does not accept.
type UnexpectedArgumentError struct {
	Path   string
	Type   string
	Name   string
	Detail string
}

func (e *UnexpectedArgumentError) Error() string {
	msg := fmt.Sprintf("%s: unexpected argument %q for type %q", e.Path, e.Name, e.Type)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// MalformedConfigError is returned for structural violations: a missing
// required key, a value of the wrong type, an unparsable file.
type MalformedConfigError struct {
	Path string
	// Pos is the source position ("file:line,col") when known.
	Pos    string
	Detail string
}

func (e *MalformedConfigError) Error() string {
	var b strings.Builder
	b.WriteString("malformed configuration")
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Pos != "" {
		b.WriteString(" (")
		b.WriteString(e.Pos)
		b.WriteString(")")
	}
	b.WriteString(": ")
	b.WriteString(e.Detail)
	return b.String()
}

// Violation describes one invalid trainer field.
type Violation struct {
	Field  string
	Reason string
}

// InvalidTrainerConfigError lists every violated trainer field, not just the
// first one found.
type InvalidTrainerConfigError struct {
	Path       string
	Violations []Violation
}

// NewInvalidTrainerConfig sorts the violations by field so the message is
// stable across runs.
func NewInvalidTrainerConfig(path string, violations []Violation) *InvalidTrainerConfigError {
	sorted := append([]Violation(nil), violations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Field < sorted[j].Field })
	return &InvalidTrainerConfigError{Path: path, Violations: sorted}
}

func (e *InvalidTrainerConfigError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, fmt.Sprintf("%s: %s", Path(e.Path, v.Field), v.Reason))
	}
	return fmt.Sprintf("invalid trainer configuration:\n- %s", strings.Join(lines, "\n- "))
}

// Fields returns the names of the violated fields in sorted order.
func (e *InvalidTrainerConfigError) Fields() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Field)
	}
	return out
}

// IsConfigError reports whether err, or any error it wraps, is one of the
// configuration errors defined in this package.
func IsConfigError(err error) bool {
	var (
		unknown    *UnknownTypeError
		missing    *MissingArgumentError
		unexpected *UnexpectedArgumentError
		malformed  *MalformedConfigError
		trainer    *InvalidTrainerConfigError
	)
	return errors.As(err, &unknown) || errors.As(err, &missing) || errors.As(err, &unexpected) ||
		errors.As(err, &malformed) || errors.As(err, &trainer)
}

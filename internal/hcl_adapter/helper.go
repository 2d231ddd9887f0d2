package hcl_adapter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// diagsToError converts HCL error diagnostics into a MalformedConfigError for
// the given key path. The first error carries the source position; the
// others are folded into the detail.
func diagsToError(path string, diags hcl.Diagnostics) error {
	errs := diags.Errs()
	if len(errs) == 0 {
		return nil
	}

	var pos string
	var details []string
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		if pos == "" && d.Subject != nil {
			pos = d.Subject.String()
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += ": " + d.Detail
		}
		details = append(details, msg)
	}
	return &cfgerr.MalformedConfigError{Path: path, Pos: pos, Detail: strings.Join(details, "; ")}
}

// attrValue evaluates a static attribute. Experiment files have no
// variables or functions, so a nil evaluation context is used.
func attrValue(path string, attr *hcl.Attribute) (cty.Value, error) {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diagsToError(path, diags)
	}
	return val, nil
}

// anyStringAttr evaluates an attribute that must hold a string, possibly
// empty.
func anyStringAttr(path string, attr *hcl.Attribute) (string, error) {
	val, err := attrValue(path, attr)
	if err != nil {
		return "", err
	}
	if val.IsNull() || !val.Type().Equals(cty.String) {
		return "", &cfgerr.MalformedConfigError{Path: path, Pos: attr.Range.String(), Detail: fmt.Sprintf("must be a string, got %s", friendly(val))}
	}
	return val.AsString(), nil
}

// stringAttr evaluates an attribute that must hold a non-empty string.
func stringAttr(path string, attr *hcl.Attribute) (string, error) {
	s, err := anyStringAttr(path, attr)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", &cfgerr.MalformedConfigError{Path: path, Pos: attr.Range.String(), Detail: "must not be empty"}
	}
	return s, nil
}

// nonNegativeIntAttr evaluates an attribute that must hold a whole number
// greater than or equal to zero.
func nonNegativeIntAttr(path string, attr *hcl.Attribute) (int, error) {
	val, err := attrValue(path, attr)
	if err != nil {
		return 0, err
	}
	bad := &cfgerr.MalformedConfigError{Path: path, Pos: attr.Range.String(), Detail: fmt.Sprintf("must be a non-negative integer, got %s", friendly(val))}
	if val.IsNull() || !val.Type().Equals(cty.Number) {
		return 0, bad
	}
	var n int
	if err := gocty.FromCtyValue(val, &n); err != nil || n < 0 {
		return 0, bad
	}
	return n, nil
}

// bodyValues reads every attribute of a flat body (args, trainer) into a
// map of values keyed by attribute name.
func bodyValues(path string, body hcl.Body) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value)
	if body == nil {
		return out, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diagsToError(path, diags)
	}
	for name, attr := range attrs {
		val, err := attrValue(cfgerr.Path(path, name), attr)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

// friendly renders a value's type for error messages.
func friendly(val cty.Value) string {
	if val.IsNull() {
		return "null"
	}
	if s, err := convert.Convert(val, cty.String); err == nil && val.Type().IsPrimitiveType() {
		return fmt.Sprintf("%s %q", val.Type().FriendlyName(), s.AsString())
	}
	return val.Type().FriendlyName()
}

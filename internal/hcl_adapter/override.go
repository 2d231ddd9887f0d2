package hcl_adapter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/ganbootstrap/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// ParseOverride parses a "path=value" command-line override. The value is
// read as an HCL expression (so `1e-4`, `true`, and `[64, 128]` keep their
// types); anything that is not a static expression is taken as a literal
// string, which lets `monitor=min val_loss` work without quoting.
func ParseOverride(s string) (config.Override, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return config.Override{}, fmt.Errorf("invalid override %q: expected path=value", s)
	}
	raw = strings.TrimSpace(raw)

	expr, diags := hclsyntax.ParseExpression([]byte(raw), "<override "+key+">", hcl.InitialPos)
	if diags.HasErrors() {
		return config.Override{Path: key, Value: cty.StringVal(raw)}, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return config.Override{Path: key, Value: cty.StringVal(raw)}, nil
	}
	return config.Override{Path: key, Value: val}, nil
}

// ParseOverrides parses every override in order.
func ParseOverrides(raw []string) ([]config.Override, error) {
	out := make([]config.Override, 0, len(raw))
	for _, s := range raw {
		o, err := ParseOverride(s)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

package component

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ArgTag is the struct tag that names a constructor argument, e.g.
// `cty:"lr,optional"`.
const ArgTag = "cty"

// ArgField describes one argument of a component's args struct.
type ArgField struct {
	Name     string
	Index    int
	Optional bool
	Type     reflect.Type
}

// ArgFields lists the tagged fields of an args struct type, sorted by
// argument name. It returns an error for untagged exported fields and for
// duplicate names, so registration can reject malformed structs early.
func ArgFields(t reflect.Type) ([]ArgField, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("args type %s is not a struct", t)
	}
	var out []ArgField
	seen := make(map[string]struct{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag, ok := f.Tag.Lookup(ArgTag)
		if !ok || tag == "" {
			return nil, fmt.Errorf("field %s.%s has no %q tag", t.Name(), f.Name, ArgTag)
		}
		if tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := parts[0]
		optional := false
		for _, opt := range parts[1:] {
			if opt != "optional" {
				return nil, fmt.Errorf("field %s.%s: unknown tag option %q", t.Name(), f.Name, opt)
			}
			optional = true
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("field %s.%s: duplicate argument name %q", t.Name(), f.Name, name)
		}
		seen[name] = struct{}{}
		out = append(out, ArgField{Name: name, Index: i, Optional: optional, Type: f.Type})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

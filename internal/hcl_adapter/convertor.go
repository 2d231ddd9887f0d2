package hcl_adapter

import (
	"fmt"
	"reflect"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the cty-backed implementation of the config.Converter
// interface.
type Converter struct{}

// NewConverter creates a new converter.
func NewConverter() *Converter {
	return &Converter{}
}

// ToValues converts a bound argument struct (or a pointer to one) back into
// its raw cty values, keyed by argument name.
func (c *Converter) ToValues(args any) (map[string]cty.Value, error) {
	v := reflect.ValueOf(args)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("args must not be a nil pointer")
		}
		v = v.Elem()
	}
	fields, err := component.ArgFields(v.Type())
	if err != nil {
		return nil, err
	}

	out := make(map[string]cty.Value, len(fields))
	for _, f := range fields {
		ty, err := impliedType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.Name, err)
		}
		val, err := gocty.ToCtyValue(v.Field(f.Index).Interface(), ty)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", f.Name, err)
		}
		out[f.Name] = val
	}
	return out, nil
}

// impliedType infers the cty type a Go field type decodes from.
func impliedType(t reflect.Type) (cty.Type, error) {
	ty, err := gocty.ImpliedType(reflect.Zero(t).Interface())
	if err != nil {
		return cty.NilType, fmt.Errorf("unable to infer cty.Type for %s: %w", t, err)
	}
	return ty, nil
}

package registry

import (
	"fmt"
	"reflect"

	"github.com/vk/ganbootstrap/internal/component"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// reservedArgs can never be declared by an args struct: "params" is supplied
// by the resolver, and the other two are sub-specs of a model.
var reservedArgs = map[string]struct{}{
	"params":       {},
	"optimizer":    {},
	"lr_scheduler": {},
}

// ArgSpec describes one accepted argument of a registered type.
type ArgSpec struct {
	Name     string
	Type     cty.Type
	Optional bool
	// Default is the value of an optional argument when it is omitted. It is
	// cty.NilVal for required arguments.
	Default cty.Value
}

// newRegistration checks the args struct of a type and builds its
// registration. Any problem is a programming error and panics, like a
// duplicate registration does.
func newRegistration[A any](name string, kind component.Kind, newArgs func() *A) *Registration {
	if name == "" {
		panic(fmt.Sprintf("cannot register %s with an empty name", kind))
	}
	if !kind.Valid() {
		panic(fmt.Sprintf("type '%s': unknown kind '%s'", name, kind))
	}
	if newArgs == nil {
		panic(fmt.Sprintf("type '%s': args constructor is nil", name))
	}

	argsType := reflect.TypeOf((*A)(nil)).Elem()
	specs, err := argSpecs(argsType, newArgs())
	if err != nil {
		panic(fmt.Sprintf("type '%s': %v", name, err))
	}

	return &Registration{
		Name:     name,
		Kind:     kind,
		ArgsType: argsType,
		Args:     specs,
		newArgs:  func() any { return newArgs() },
	}
}

func argSpecs(t reflect.Type, defaults any) ([]ArgSpec, error) {
	fields, err := component.ArgFields(t)
	if err != nil {
		return nil, err
	}
	dv := reflect.ValueOf(defaults)
	if dv.Kind() != reflect.Ptr || dv.IsNil() {
		return nil, fmt.Errorf("args constructor returned nil")
	}
	dv = dv.Elem()

	specs := make([]ArgSpec, 0, len(fields))
	for _, f := range fields {
		if _, reserved := reservedArgs[f.Name]; reserved {
			return nil, fmt.Errorf("argument name '%s' is reserved", f.Name)
		}
		ty, err := gocty.ImpliedType(reflect.Zero(f.Type).Interface())
		if err != nil {
			return nil, fmt.Errorf("argument '%s': could not imply cty type from Go field type %s: %v", f.Name, f.Type, err)
		}
		spec := ArgSpec{Name: f.Name, Type: ty, Optional: f.Optional, Default: cty.NilVal}
		if f.Optional {
			def, err := gocty.ToCtyValue(dv.Field(f.Index).Interface(), ty)
			if err != nil {
				return nil, fmt.Errorf("argument '%s': default is not representable: %v", f.Name, err)
			}
			spec.Default = def
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

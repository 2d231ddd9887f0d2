package hcl_adapter

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/vk/ganbootstrap/internal/cfgerr"
	"github.com/vk/ganbootstrap/internal/component"
	"github.com/vk/ganbootstrap/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// implicitArgs are bound by the resolver rather than by configuration.
var implicitArgs = map[string]string{
	"params": "the parameter set is bound implicitly from the owning model",
}

// Bind populates target, a pointer to an args struct pre-filled with
// defaults, from the raw args of the component at path.
//
// Unexpected keys are reported first, then missing required keys, each in
// sorted order, so the same config always produces the same error.
func (c *Converter) Bind(ctx context.Context, path, typeName string, args map[string]cty.Value, target any) error {
	logger := ctxlog.FromContext(ctx).With("path", path, "type", typeName)
	logger.Debug("Binding component arguments.", "arg_count", len(args))

	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind target for %s must be a non-nil pointer to a struct, got %T", path, target)
	}
	structVal := ptr.Elem()

	fields, err := component.ArgFields(structVal.Type())
	if err != nil {
		return fmt.Errorf("bind target for %s: %w", path, err)
	}
	byName := make(map[string]component.ArgField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			return &cfgerr.UnexpectedArgumentError{
				Path:   cfgerr.Path(path, "args", name),
				Type:   typeName,
				Name:   name,
				Detail: implicitArgs[name],
			}
		}
	}

	for _, f := range fields {
		val, provided := args[f.Name]
		if !provided || val.IsNull() {
			if !f.Optional {
				return &cfgerr.MissingArgumentError{Path: cfgerr.Path(path, "args", f.Name), Type: typeName, Name: f.Name}
			}
			logger.Debug("Argument not provided, keeping default.", "arg", f.Name)
			continue
		}
		if err := decodeValue(val, structVal.Field(f.Index)); err != nil {
			return &cfgerr.MalformedConfigError{Path: cfgerr.Path(path, "args", f.Name), Detail: err.Error()}
		}
	}

	logger.Debug("Finished binding component arguments successfully.")
	return nil
}

// decodeValue converts val into the Go field. Only primitive conversions
// (number, string, bool, and lists of them) are attempted: an object or map
// never coerces into a scalar or a list.
func decodeValue(val cty.Value, field reflect.Value) error {
	want, err := impliedType(field.Type())
	if err != nil {
		return err
	}
	if !val.IsWhollyKnown() {
		return fmt.Errorf("value is not known")
	}

	got := val.Type()
	if (got.IsObjectType() || got.IsMapType()) && !(want.IsObjectType() || want.IsMapType()) {
		return fmt.Errorf("expected %s, got %s", want.FriendlyName(), got.FriendlyName())
	}
	if (got.IsTupleType() || got.IsListType() || got.IsSetType()) && !(want.IsListType() || want.IsSetType()) {
		return fmt.Errorf("expected %s, got %s", want.FriendlyName(), got.FriendlyName())
	}

	converted, err := convert.Convert(val, want)
	if err != nil {
		return fmt.Errorf("cannot convert %s to %s: %w", got.FriendlyName(), want.FriendlyName(), err)
	}
	if err := gocty.FromCtyValue(converted, field.Addr().Interface()); err != nil {
		return fmt.Errorf("cannot decode %s: %w", want.FriendlyName(), err)
	}
	return nil
}

package app

import (
	"fmt"
	"text/tabwriter"

	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// listTypes prints every registered component type with its arguments.
func (a *App) listTypes() error {
	tw := tabwriter.NewWriter(a.outW, 0, 4, 2, ' ', 0)
	for _, reg := range a.registry.Describe() {
		fmt.Fprintf(tw, "%s\t%s\t\n", reg.Kind, reg.Name)
		for _, arg := range reg.Args {
			def := "required"
			if arg.Optional {
				b, err := ctyjson.Marshal(arg.Default, arg.Type)
				if err != nil {
					return fmt.Errorf("%s.%s: %w", reg.Name, arg.Name, err)
				}
				def = "default " + string(b)
			}
			fmt.Fprintf(tw, "\t  %s\t%s\t%s\n", arg.Name, arg.Type.FriendlyName(), def)
		}
	}
	return tw.Flush()
}

// Package registry maps the type names used in experiment files (e.g.
// "HDGANGenerator", "Adam") to the compiled Go factories that build them.
//
// Every registration is tagged with a component kind and carries a typed
// args struct. The struct is checked when it is registered, so a malformed
// component fails at startup rather than while a configuration is being
// resolved. Modules register their types once; the registry is then sealed
// and only read for the remainder of the process.
package registry

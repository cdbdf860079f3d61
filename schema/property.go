package schema

import "reflect"

// Property is a computed, read-only member backed by a getter rather
// than a stored column.
type Property struct {
	// Name is the member name tooling should present, e.g. "DisplayName".
	Name string
	// Get computes the property value for a model instance.
	Get func(model any) any
}

// PropertyProvider is implemented by model types that expose computed
// properties. The provider is resolved from the type, never from a
// particular instance, so implementations must not rely on field state.
type PropertyProvider interface {
	ModelProperties() []Property
}

// propertiesOf resolves the computed properties declared by a model
// type. Resolution goes through a fresh zero value so that both value
// and pointer receivers are honored.
func propertiesOf(t reflect.Type) []Property {
	if pp, ok := reflect.New(t).Interface().(PropertyProvider); ok {
		return pp.ModelProperties()
	}
	return nil
}

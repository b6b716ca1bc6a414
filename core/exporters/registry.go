package exporters

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Factory builds a fresh exporter for one job.
type Factory func() Exporter

var registry = map[string]Factory{}

// aliases accepts the file extension spelling of a format.
var aliases = map[string]string{
	"txt":   FormatText,
	"csv":   FormatText,
	"xlsx":  FormatSpreadsheet,
	"excel": FormatSpreadsheet,
}

// Register adds factory under format. Registering a name twice, directly
// or through an alias, is an error.
func Register(format string, factory Factory) error {
	format = Normalize(format)
	if _, exists := registry[format]; exists {
		return fmt.Errorf("exporter: format %q already registered", format)
	}
	registry[format] = factory
	return nil
}

// Get returns a new exporter for format, accepting aliases and any case.
func Get(format string) (Exporter, error) {
	factory, ok := registry[Normalize(format)]
	if !ok {
		return nil, fmt.Errorf("unsupported format: %q (available: %s)",
			format, strings.Join(List(), ", "))
	}
	return factory(), nil
}

// Normalize maps user input such as "XLSX" or " txt " to a registered format name.
func Normalize(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if canonical, ok := aliases[format]; ok {
		return canonical
	}
	return format
}

// List returns the registered format names in order.
func List() []string {
	return slices.Sorted(maps.Keys(registry))
}

func MustRegister(format string, factory Factory) {
	if err := Register(format, factory); err != nil {
		panic(err)
	}
}

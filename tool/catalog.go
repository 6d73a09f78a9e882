package tool

import (
	"fmt"
	"strings"

	"github.com/hupe1980/supportmesh/core"
)

// FormatCatalog renders a capability list for inclusion in a tool-selection
// prompt, one "name: description" line per tool.
func FormatCatalog(caps []core.Capability) string {
	var b strings.Builder
	for _, c := range caps {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// CatalogNames returns just the tool names of a catalog.
func CatalogNames(caps []core.Capability) []string {
	names := make([]string, 0, len(caps))
	for _, c := range caps {
		names = append(names, c.Name)
	}
	return names
}

// CatalogContains reports whether the catalog advertises the named tool.
func CatalogContains(caps []core.Capability, name string) bool {
	for _, c := range caps {
		if c.Name == name {
			return true
		}
	}
	return false
}

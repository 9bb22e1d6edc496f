package provider

import (
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/joist-el/joist/pkg/recipe"
)

// catalogFile is the TOML shape shared by file and HTTP providers:
//
//	[packages.magit]
//	repo = "magit/magit"
//	host = "github"
type catalogFile struct {
	Packages map[string]map[string]any `toml:"packages"`
}

// parseCatalog decodes a TOML catalog into per-package property sets.
func parseCatalog(data []byte) (map[string]recipe.Props, error) {
	var catalog catalogFile
	if err := toml.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	index := make(map[string]recipe.Props, len(catalog.Packages))
	for name, table := range catalog.Packages {
		index[name] = tableToProps(table)
	}
	return index, nil
}

// tableToProps converts a decoded TOML table to Props. TOML tables are
// unordered, so keys are sorted for a deterministic property order.
func tableToProps(table map[string]any) recipe.Props {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	props := make(recipe.Props, 0, len(keys))
	for _, k := range keys {
		props = append(props, recipe.Prop{Key: k, Value: table[k]})
	}
	return props
}

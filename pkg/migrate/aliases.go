package migrate

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dashlink/dashlink-go/pkg/alias"
)

// DashboardAliases decodes the entity aliases of a dashboard document,
// ordered by name then id. The document should be migrated first; legacy
// device aliases are not read.
func DashboardAliases(doc map[string]any) ([]alias.Alias, error) {
	cfg, _ := doc[keyConfiguration].(map[string]any)
	return ConfigurationAliases(cfg)
}

// ConfigurationAliases decodes the entity aliases of a dashboard
// configuration. An alias without an id takes its table key.
func ConfigurationAliases(cfg map[string]any) ([]alias.Alias, error) {
	table, _ := cfg[keyEntityAliases].(map[string]any)

	var errs []error
	out := make([]alias.Alias, 0, len(table))
	for key, raw := range table {
		data, err := json.Marshal(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("alias %s: %w", key, err))
			continue
		}
		var a alias.Alias
		if err := json.Unmarshal(data, &a); err != nil {
			errs = append(errs, fmt.Errorf("alias %s: %w", key, err))
			continue
		}
		if a.ID == "" {
			a.ID = key
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b alias.Alias) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, errors.Join(errs...)
}

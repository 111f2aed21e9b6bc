package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/SimpleFi-finance/defi-analytics/business/profitability/app"
	"github.com/SimpleFi-finance/defi-analytics/internal/config"
)

// resolveTargets expands group names, pool names and raw addresses into
// targets. Groups write to a dataset named after the group; pools and
// addresses to dataset. No args means every configured group.
func resolveTargets(c *config.CollectionConfig, args []string, dataset string) ([]app.Target, error) {
	if len(args) == 0 {
		for g := range c.Groups {
			args = append(args, g)
		}
		sort.Strings(args)
	}

	var out []app.Target
	seen := make(map[string]struct{})
	add := func(t app.Target) {
		key := t.Dataset + "/" + t.Name
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}

	for _, arg := range args {
		if names, ok := c.Group(arg); ok {
			group := strings.ToLower(arg)
			for _, n := range names {
				addr, _ := c.Pool(n)
				add(app.Target{Dataset: group, Name: strings.ToUpper(n), Market: addr})
			}
			continue
		}
		if addr, ok := c.Pool(arg); ok {
			add(app.Target{Dataset: dataset, Name: strings.ToUpper(arg), Market: addr})
			continue
		}
		if common.IsHexAddress(arg) {
			addr := common.HexToAddress(arg)
			add(app.Target{Dataset: dataset, Name: strings.ToLower(addr.Hex()), Market: addr})
			continue
		}
		return nil, fmt.Errorf("unknown pool, group or address: %s", arg)
	}
	return out, nil
}

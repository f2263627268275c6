package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

// routesFlag collects inline routes. Every occurrence of the flag takes a
// YAML list of routes, or a single route, and appends them to the table.
type routesFlag struct {
	table *RouteTable
	raw   []string
}

func newRoutesFlag(table *RouteTable) *routesFlag {
	return &routesFlag{table: table}
}

func (rf *routesFlag) Set(value string) error {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "-") || strings.HasPrefix(trimmed, "[") {
		rt, err := ParseRoutes([]byte(value))
		if err != nil {
			return err
		}

		return rf.append(value, rt)
	}

	var r Route
	if err := yaml.Unmarshal([]byte(value), &r); err != nil {
		return fmt.Errorf("failed to parse route: %w", err)
	}

	rt := RouteTable{r}
	if err := rt.normalize(); err != nil {
		return err
	}

	return rf.append(value, rt)
}

func (rf *routesFlag) append(raw string, rt RouteTable) error {
	*rf.table = append(*rf.table, rt...)
	rf.raw = append(rf.raw, raw)
	return nil
}

func (rf *routesFlag) String() string {
	if rf == nil {
		return ""
	}

	return strings.Join(rf.raw, " ")
}

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Route associates a value with a key pattern of a collection.
type Route struct {
	Key   string `yaml:"key"`
	Value any    `yaml:"value"`
}

// RouteTable is the list of routes, in the order they are added to the
// collection.
type RouteTable []Route

var errMissingKey = errors.New("route without key")

// ParseRoutes parses a YAML list of routes. Mappings in the values are
// converted to map[string]any, so that they can be rendered as JSON.
func ParseRoutes(data []byte) (RouteTable, error) {
	var rt RouteTable
	if err := yaml.Unmarshal(data, &rt); err != nil {
		return nil, fmt.Errorf("failed to parse routes: %w", err)
	}

	if err := rt.normalize(); err != nil {
		return nil, err
	}

	return rt, nil
}

// LoadRoutes reads a route table from a YAML file.
func LoadRoutes(path string) (RouteTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid routes file: %w", err)
	}

	return ParseRoutes(data)
}

func (rt RouteTable) normalize() error {
	for i := range rt {
		if rt[i].Key == "" {
			return fmt.Errorf("route %d: %w", i, errMissingKey)
		}

		rt[i].Value = normalizeValue(rt[i].Value)
	}

	return nil
}

func normalizeValue(v any) any {
	switch vt := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(vt))
		for k, vi := range vt {
			m[fmt.Sprint(k)] = normalizeValue(vi)
		}

		return m
	case []any:
		for i := range vt {
			vt[i] = normalizeValue(vt[i])
		}

		return vt
	default:
		return v
	}
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/scoizzle/poly/config"
	"github.com/scoizzle/poly/matcher"
	"github.com/scoizzle/poly/metrics"
	"github.com/scoizzle/poly/pathmux"
)

var errInvalidNumberOfArgs = errors.New("invalid number of args")

func compileArg(cfg *config.Config, minArgs, maxArgs int) (*matcher.Matcher, error) {
	if len(cfg.Args) < minArgs || maxArgs >= 0 && len(cfg.Args) > maxArgs {
		return nil, &usageError{errInvalidNumberOfArgs}
	}

	m := matcher.Compile(cfg.Args[0])
	if err := m.Err(); err != nil {
		return nil, err
	}

	return m, nil
}

func matchCmd(cfg *config.Config, out io.Writer) error {
	m, err := compileArg(cfg, 2, 2)
	if err != nil {
		return err
	}

	s, ok := m.MatchStore(cfg.Args[1])
	if !ok {
		return errNoMatch
	}

	return write(cfg, out, s)
}

func allCmd(cfg *config.Config, out io.Writer) error {
	m, err := compileArg(cfg, 2, 2)
	if err != nil {
		return err
	}

	s := m.MatchAll(cfg.Args[1], nil, cfg.Single)
	if s.Len() == 0 {
		return errNoMatch
	}

	return write(cfg, out, s)
}

// parseValues parses key=value arguments. Keys may contain dots to set
// nested values for paired and grouped captures, e.g. Param.Key=a.
func parseValues(args []string) (matcher.Values, error) {
	values := make(matcher.Values)
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid value, expected key=value: %s", a)
		}

		path := strings.Split(k, ".")
		current := values
		for _, p := range path[:len(path)-1] {
			next, ok := current[p].(matcher.Values)
			if !ok {
				next = make(matcher.Values)
				current[p] = next
			}

			current = next
		}

		current[path[len(path)-1]] = v
	}

	return values, nil
}

func templateCmd(cfg *config.Config, out io.Writer) error {
	m, err := compileArg(cfg, 1, -1)
	if err != nil {
		return err
	}

	if !m.IsTemplatable {
		return matcher.ErrNotTemplatable
	}

	values, err := parseValues(cfg.Args[1:])
	if err != nil {
		return &usageError{err}
	}

	s, ok := m.Template(values)
	if !ok {
		return matcher.ErrMissingValue
	}

	_, err = fmt.Fprintln(out, s)
	return err
}

type routeResult struct {
	Key    string         `json:"key"`
	Value  any            `json:"value"`
	Params *matcher.Store `json:"params,omitempty"`
}

func loadCollection(cfg *config.Config, m metrics.Metrics) (*pathmux.Collection[any], error) {
	rt, err := cfg.Routes()
	if err != nil {
		return nil, err
	}

	c := pathmux.New[any](cfg.Separator, pathmux.WithMetrics(m))
	for _, r := range rt {
		if !c.Add(r.Key, r.Value) {
			log.Warnf("route ignored, invalid or duplicate key: %s", r.Key)
		}
	}

	log.Infof("%d routes loaded", c.Len())
	return c, nil
}

func lookup(c *pathmux.Collection[any], key string) (routeResult, bool) {
	params := matcher.NewStore()
	v, ok := c.Lookup(key, params)
	if !ok {
		return routeResult{}, false
	}

	r := routeResult{Key: key, Value: v}
	if params.Len() > 0 {
		r.Params = params
	}

	return r, true
}

func routeCmd(cfg *config.Config, out io.Writer) error {
	if len(cfg.Args) == 0 {
		return &usageError{errInvalidNumberOfArgs}
	}

	c, err := loadCollection(cfg, metrics.Void)
	if err != nil {
		return err
	}

	var (
		results []routeResult
		missed  bool
	)

	for _, key := range cfg.Args {
		r, ok := lookup(c, key)
		if !ok {
			log.Infof("no route for %s", key)
			missed = true
			continue
		}

		results = append(results, r)
	}

	if len(results) > 0 {
		if err := write(cfg, out, results); err != nil {
			return err
		}
	}

	if missed {
		return errNoMatch
	}

	return nil
}

func treeCmd(cfg *config.Config, out io.Writer) error {
	c, err := loadCollection(cfg, metrics.Void)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, c.String())
	return err
}

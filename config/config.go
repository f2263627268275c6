package config

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/scoizzle/poly/logging"
	"github.com/scoizzle/poly/metrics"
)

const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

type Config struct {
	ConfigFile string
	Flags      *flag.FlagSet

	// Args holds the arguments left after the flags.
	Args []string `yaml:"-"`

	// routing:
	RoutesFile      string     `yaml:"routes-file"`
	InlineRoutes    RouteTable `yaml:"routes"`
	SeparatorString string     `yaml:"separator"`
	Separator       byte       `yaml:"-"`

	// output:
	Output string `yaml:"output"`
	Single bool   `yaml:"single"`

	// server:
	Address string `yaml:"address"`

	// metrics:
	MetricsFlavour               *listFlag    `yaml:"metrics-flavour"`
	MetricsKind                  metrics.Kind `yaml:"-"`
	MetricsPrefix                string       `yaml:"metrics-prefix"`
	RuntimeMetrics               bool         `yaml:"runtime-metrics"`
	MetricsUseExpDecaySample     bool         `yaml:"metrics-exp-decay-sample"`
	HistogramMetricBucketsString string       `yaml:"histogram-metric-buckets"`
	HistogramMetricBuckets       []float64    `yaml:"-"`

	// logging:
	ApplicationLog            string    `yaml:"application-log"`
	ApplicationLogLevel       log.Level `yaml:"-"`
	ApplicationLogLevelString string    `yaml:"application-log-level"`
	ApplicationLogPrefix      string    `yaml:"application-log-prefix"`
	ApplicationLogJSONEnabled bool      `yaml:"application-log-json-enabled"`

	routesFlag *routesFlag
}

func NewConfig() *Config {
	cfg := new(Config)
	cfg.MetricsFlavour = commaListFlag("codahale", "prometheus")
	cfg.routesFlag = newRoutesFlag(&cfg.InlineRoutes)

	flag := flag.NewFlagSet("", flag.ContinueOnError)
	flag.StringVar(&cfg.ConfigFile, "config-file", "", "if provided the flags will be loaded/overwritten by the values on the file (yaml)")

	// routing:
	flag.StringVar(&cfg.RoutesFile, "routes-file", "", "YAML file containing a list of routes, each with a key pattern and a value")
	flag.Var(cfg.routesFlag, "routes", "inline routes in YAML, either a single {key: ..., value: ...} or a list of them. Can be repeated")
	flag.StringVar(&cfg.SeparatorString, "separator", "/", "character separating the sections of the route keys")

	// output:
	flag.StringVar(&cfg.Output, "output", OutputJSON, "output format of the results, possible values: json, yaml")
	flag.BoolVar(&cfg.Single, "single", false, "when matching all occurrences, merge the captures into a single object")

	// server:
	flag.StringVar(&cfg.Address, "address", ":9090", "network address that the lookup server should listen on")

	// metrics:
	flag.Var(cfg.MetricsFlavour, "metrics-flavour", "Metrics flavour is used to change the exposed metrics format. Supported metric formats: 'codahale' and 'prometheus', you can select both of them by using one option with ',' separated values")
	flag.StringVar(&cfg.MetricsPrefix, "metrics-prefix", "poly.", "allows setting a custom prefix for the metrics keys")
	flag.BoolVar(&cfg.RuntimeMetrics, "runtime-metrics", true, "enables reporting of the Go runtime statistics")
	flag.BoolVar(&cfg.MetricsUseExpDecaySample, "metrics-exp-decay-sample", false, "use exponentially decaying sample in metrics")
	flag.StringVar(&cfg.HistogramMetricBucketsString, "histogram-metric-buckets", "", "use custom buckets for prometheus histograms, must be a comma-separated list of numbers")

	// logging:
	flag.StringVar(&cfg.ApplicationLog, "application-log", "", "output file for the application log. When not set, /dev/stderr is used")
	flag.StringVar(&cfg.ApplicationLogLevelString, "application-log-level", "WARN", "log level for application logs, possible values: PANIC, FATAL, ERROR, WARN, INFO, DEBUG")
	flag.StringVar(&cfg.ApplicationLogPrefix, "application-log-prefix", "", "prefix for each log entry")
	flag.BoolVar(&cfg.ApplicationLogJSONEnabled, "application-log-json-enabled", false, "when this flag is set, log in JSON format is used")

	cfg.Flags = flag
	return cfg
}

func validate(c *Config) error {
	_, err := log.ParseLevel(c.ApplicationLogLevelString)
	if err != nil {
		return err
	}

	if len(c.SeparatorString) != 1 {
		return fmt.Errorf("invalid separator: %q, must be a single character", c.SeparatorString)
	}

	switch c.Output {
	case OutputJSON, OutputYAML:
	default:
		return fmt.Errorf("invalid output format: %s", c.Output)
	}

	if err := c.MetricsFlavour.validate(); err != nil {
		return fmt.Errorf("invalid metrics flavour: %w", err)
	}

	_, err = c.parseHistogramBuckets(c.HistogramMetricBucketsString)
	if err != nil {
		return err
	}

	return c.InlineRoutes.normalize()
}

func (c *Config) Parse() error {
	return c.ParseArgs(os.Args[0], os.Args[1:])
}

func (c *Config) ParseArgs(progname string, args []string) error {
	c.Flags.Init(progname, flag.ContinueOnError)
	err := c.Flags.Parse(args)
	if err != nil {
		return err
	}

	if c.ConfigFile != "" {
		yamlFile, err := os.ReadFile(c.ConfigFile)
		if err != nil {
			return fmt.Errorf("invalid config file: %w", err)
		}

		c.InlineRoutes = nil
		err = yaml.Unmarshal(yamlFile, c)
		if err != nil {
			return fmt.Errorf("unmarshalling config file error: %w", err)
		}

		// the flags take precedence, and the inline routes of the flags
		// follow the ones from the file
		c.routesFlag.raw = nil
		err = c.Flags.Parse(args)
		if err != nil {
			return err
		}
	}

	c.Args = c.Flags.Args()

	if err := validate(c); err != nil {
		return err
	}

	c.ApplicationLogLevel, _ = log.ParseLevel(c.ApplicationLogLevelString)
	c.Separator = c.SeparatorString[0]
	c.HistogramMetricBuckets, _ = c.parseHistogramBuckets(c.HistogramMetricBucketsString)
	c.MetricsKind = c.metricsKind()
	return nil
}

func (c *Config) metricsKind() metrics.Kind {
	var kind metrics.Kind
	if c.MetricsFlavour.Has("codahale") {
		kind |= metrics.CodaHaleKind
	}

	if c.MetricsFlavour.Has("prometheus") {
		kind |= metrics.PrometheusKind
	}

	if kind == metrics.UnknownKind {
		kind = metrics.CodaHaleKind
	}

	return kind
}

func (c *Config) parseHistogramBuckets(bucketString string) ([]float64, error) {
	if bucketString == "" {
		return nil, nil
	}

	var result []float64
	thresholds := strings.Split(bucketString, ",")
	for _, v := range thresholds {
		bucket, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("unable to parse histogram-metric-buckets: %w", err)
		}

		result = append(result, bucket)
	}

	sort.Float64s(result)
	return result, nil
}

// LoggingOptions returns the application log settings. The output is left
// to the caller.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		ApplicationLogPrefix:      c.ApplicationLogPrefix,
		ApplicationLogLevel:       c.ApplicationLogLevel,
		ApplicationLogLevelSet:    true,
		ApplicationLogJSONEnabled: c.ApplicationLogJSONEnabled,
	}
}

func (c *Config) MetricsOptions() metrics.Options {
	return metrics.Options{
		Format:               c.MetricsKind,
		Prefix:               c.MetricsPrefix,
		EnableRuntimeMetrics: c.RuntimeMetrics,
		UseExpDecaySample:    c.MetricsUseExpDecaySample,
		HistogramBuckets:     c.HistogramMetricBuckets,
	}
}

// Routes returns the routes from the routes file followed by the inline
// routes.
func (c *Config) Routes() (RouteTable, error) {
	var rt RouteTable
	if c.RoutesFile != "" {
		fromFile, err := LoadRoutes(c.RoutesFile)
		if err != nil {
			return nil, err
		}

		rt = append(rt, fromFile...)
	}

	return append(rt, c.InlineRoutes...), nil
}

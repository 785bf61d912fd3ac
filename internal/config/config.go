package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
)

// Journal adapters.
const (
	AdapterPGX  = "pgx"
	AdapterSQL  = "sql"
	AdapterSQLX = "sqlx"
)

// Log formats.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

const (
	defaultLogLevel       = "info"
	defaultServiceName    = "lending-registry"
	defaultTraceEndpoint  = "localhost:4317"
	defaultMetricEndpoint = "localhost:4317"
	defaultMetricInterval = 5 * time.Second
	defaultJournalTable   = "lending_events"
	defaultTimezone       = "UTC"
	defaultOpeningHour    = 9

	startDateLayout = "2006-01-02"
)

var (
	// ErrReadingConfigFailed is returned when the configuration file cannot be read.
	ErrReadingConfigFailed = errors.New("reading config failed")

	// ErrParsingConfigFailed is returned when the YAML does not decode into a Config.
	ErrParsingConfigFailed = errors.New("parsing config failed")

	// ErrInvalidConfig wraps every validation problem found in a Config.
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the root of the configuration file.
type Config struct {
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
	Journal       JournalConfig       `yaml:"journal"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Simulation    SimulationConfig    `yaml:"simulation"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ObservabilityConfig controls OpenTelemetry export. Disabled by default.
type ObservabilityConfig struct {
	Enabled        bool          `yaml:"enabled"`
	ServiceName    string        `yaml:"service_name"`
	TraceEndpoint  string        `yaml:"trace_endpoint"`
	MetricEndpoint string        `yaml:"metric_endpoint"`
	MetricInterval time.Duration `yaml:"metric_interval"`
	Insecure       bool          `yaml:"insecure"`
}

// JournalConfig controls the PostgreSQL lending journal. Disabled by default.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Adapter     string `yaml:"adapter"`
	DSN         string `yaml:"dsn"`
	Table       string `yaml:"table"`
	CreateTable bool   `yaml:"create_table"`
}

// CatalogConfig lists the patrons and books the registry is seeded with.
type CatalogConfig struct {
	Patrons []PatronConfig `yaml:"patrons"`
	Books   []BookConfig   `yaml:"books"`
}

// PatronConfig describes one patron. Attribute is the student number or the department.
type PatronConfig struct {
	ID        string `yaml:"id"`
	Kind      string `yaml:"kind"`
	Name      string `yaml:"name"`
	Email     string `yaml:"email"`
	Attribute string `yaml:"attribute"`
}

// BookConfig describes one book.
type BookConfig struct {
	ISBN     string `yaml:"isbn"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Category string `yaml:"category"`
}

// SimulationConfig is the scripted scenario.
type SimulationConfig struct {
	StartDate string       `yaml:"start_date"`
	Timezone  string       `yaml:"timezone"`
	Steps     []StepConfig `yaml:"steps"`
}

// StepConfig is one scripted action. Day counts from the start date, starting at 0.
type StepConfig struct {
	Day    int    `yaml:"day"`
	Action Action `yaml:"action"`
	Patron string `yaml:"patron"`
	ISBN   string `yaml:"isbn"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrReadingConfigFailed, err)
	}

	return Parse(data)
}

// Parse decodes YAML, applies defaults and validates. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Join(ErrParsingConfigFailed, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	if c.Logging.Format == "" {
		c.Logging.Format = FormatConsole
	}

	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = defaultServiceName
	}

	if c.Observability.TraceEndpoint == "" {
		c.Observability.TraceEndpoint = defaultTraceEndpoint
	}

	if c.Observability.MetricEndpoint == "" {
		c.Observability.MetricEndpoint = defaultMetricEndpoint
	}

	if c.Observability.MetricInterval == 0 {
		c.Observability.MetricInterval = defaultMetricInterval
	}

	if c.Journal.Adapter == "" {
		c.Journal.Adapter = AdapterPGX
	}

	if c.Journal.Table == "" {
		c.Journal.Table = defaultJournalTable
	}

	if c.Simulation.Timezone == "" {
		c.Simulation.Timezone = defaultTimezone
	}
}

// Validate reports every problem at once, joined under ErrInvalidConfig.
func (c Config) Validate() error {
	var problems []error

	problems = append(problems, c.Logging.validate()...)
	problems = append(problems, c.Observability.validate()...)
	problems = append(problems, c.Journal.validate()...)
	problems = append(problems, c.Catalog.validate()...)
	problems = append(problems, c.Simulation.validate()...)

	if len(problems) == 0 {
		return nil
	}

	return errors.Join(append([]error{ErrInvalidConfig}, problems...)...)
}

func (l LoggingConfig) validate() []error {
	var problems []error

	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("logging.level: unknown level %q", l.Level))
	}

	switch l.Format {
	case FormatConsole, FormatJSON:
	default:
		problems = append(problems, fmt.Errorf("logging.format: unknown format %q", l.Format))
	}

	return problems
}

func (o ObservabilityConfig) validate() []error {
	if o.MetricInterval < 0 {
		return []error{fmt.Errorf("observability.metric_interval: must be positive, got %s", o.MetricInterval)}
	}

	return nil
}

func (j JournalConfig) validate() []error {
	var problems []error

	switch j.Adapter {
	case AdapterPGX, AdapterSQL, AdapterSQLX:
	default:
		problems = append(problems, fmt.Errorf("journal.adapter: unknown adapter %q", j.Adapter))
	}

	if j.Enabled && j.DSN == "" {
		problems = append(problems, errors.New("journal.dsn: required when the journal is enabled"))
	}

	return problems
}

func (c CatalogConfig) validate() []error {
	var problems []error

	patronIDs := make(map[string]bool, len(c.Patrons))
	for i, p := range c.Patrons {
		if p.ID == "" {
			problems = append(problems, fmt.Errorf("catalog.patrons[%d]: id is required", i))
		} else if patronIDs[p.ID] {
			problems = append(problems, fmt.Errorf("catalog.patrons[%d]: duplicate id %q", i, p.ID))
		}

		patronIDs[p.ID] = true

		if _, err := circulation.ParsePatronKind(p.Kind); err != nil {
			problems = append(problems, fmt.Errorf("catalog.patrons[%d]: %w", i, err))
		}
	}

	isbns := make(map[string]bool, len(c.Books))
	for i, b := range c.Books {
		if b.ISBN == "" {
			problems = append(problems, fmt.Errorf("catalog.books[%d]: isbn is required", i))
		} else if isbns[b.ISBN] {
			problems = append(problems, fmt.Errorf("catalog.books[%d]: duplicate isbn %q", i, b.ISBN))
		}

		isbns[b.ISBN] = true
	}

	return problems
}

func (s SimulationConfig) validate() []error {
	var problems []error

	if _, err := s.Start(); err != nil {
		problems = append(problems, err)
	}

	for i, step := range s.Steps {
		if step.Day < 0 {
			problems = append(problems, fmt.Errorf("simulation.steps[%d]: day must not be negative", i))
		}

		if err := step.Action.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("simulation.steps[%d]: %w", i, err))
			continue
		}

		if step.Action.NeedsPatron() && step.Patron == "" {
			problems = append(problems, fmt.Errorf("simulation.steps[%d]: %s needs a patron", i, step.Action))
		}

		if step.Action.NeedsISBN() && step.ISBN == "" {
			problems = append(problems, fmt.Errorf("simulation.steps[%d]: %s needs an isbn", i, step.Action))
		}
	}

	return problems
}

// Start returns the opening hour of the start date in the configured timezone.
// An empty start date means today.
func (s SimulationConfig) Start() (time.Time, error) {
	location, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.timezone: %w", err)
	}

	if s.StartDate == "" {
		now := time.Now().In(location)
		return time.Date(now.Year(), now.Month(), now.Day(), defaultOpeningHour, 0, 0, 0, location), nil
	}

	date, err := time.ParseInLocation(startDateLayout, s.StartDate, location)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.start_date: %w", err)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), defaultOpeningHour, 0, 0, 0, location), nil
}

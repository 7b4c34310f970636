package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/k1networth/orderflow/internal/protocol"
	"github.com/spf13/viper"
)

// DefaultFile is read when it exists. The process environment always wins over it.
const DefaultFile = ".env"

type Config struct {
	AppEnv      string `mapstructure:"app_env"`
	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
	LogLevel    string `mapstructure:"log_level"`
	DatabaseURL string `mapstructure:"database_url"`

	StreamBackend string        `mapstructure:"stream_backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	StreamMaxLen  int64         `mapstructure:"stream_max_len"`
	KafkaBrokers  []string      `mapstructure:"kafka_brokers"`
	KafkaClientID string        `mapstructure:"kafka_client_id"`
	PollInterval  time.Duration `mapstructure:"stream_poll_interval"`
	BatchSize     int           `mapstructure:"stream_batch_size"`

	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	WorkerDomain      string        `mapstructure:"worker_domain"`
	WorkerConsumer    string        `mapstructure:"worker_consumer"`
	HandleTimeout     time.Duration `mapstructure:"worker_handle_timeout"`
	CursorStore       string        `mapstructure:"cursor_store"`
	CursorPath        string        `mapstructure:"cursor_path"`
	WorkerIdempotency bool          `mapstructure:"worker_idempotency"`

	JanitorInterval  time.Duration `mapstructure:"janitor_interval"`
	JanitorRetention time.Duration `mapstructure:"janitor_retention"`

	SMTPHost     string        `mapstructure:"smtp_host"`
	SMTPPort     int           `mapstructure:"smtp_port"`
	SMTPUsername string        `mapstructure:"smtp_username"`
	SMTPPassword string        `mapstructure:"smtp_password"`
	SMTPFrom     string        `mapstructure:"smtp_from"`
	SMTPFromName string        `mapstructure:"smtp_from_name"`
	SMTPTLS      bool          `mapstructure:"smtp_tls"`
	SMTPTimeout  time.Duration `mapstructure:"smtp_timeout"`

	Company Company `mapstructure:",squash"`
}

// Company is the sender printed on shipment guides.
type Company struct {
	Nome           string  `mapstructure:"company_nome"`
	Endereco       string  `mapstructure:"company_endereco"`
	CidadeEstado   string  `mapstructure:"company_cidade_estado"`
	Telefone       string  `mapstructure:"company_telefone"`
	CNPJ           string  `mapstructure:"company_cnpj"`
	PesoTotal      float64 `mapstructure:"company_peso_total"`
	Volume         int     `mapstructure:"company_volume"`
	Transportadora string  `mapstructure:"company_transportadora"`
	Observacao     string  `mapstructure:"company_observacao"`
}

var defaults = map[string]any{
	"app_env":      "dev",
	"http_addr":    ":8080",
	"metrics_addr": ":9091",
	"log_level":    "info",
	"database_url": "",

	"stream_backend":       "redis",
	"redis_addr":           "localhost:6379",
	"redis_password":       "",
	"redis_db":             0,
	"stream_max_len":       0,
	"kafka_brokers":        []string{"localhost:9092"},
	"kafka_client_id":      "orderflow",
	"stream_poll_interval": time.Second,
	"stream_batch_size":    10,

	"request_timeout": 30 * time.Second,

	"worker_domain":         "",
	"worker_consumer":       "",
	"worker_handle_timeout": 30 * time.Second,
	"cursor_store":          "memory",
	"cursor_path":           "cursors.db",
	"worker_idempotency":    false,

	"janitor_interval":  time.Minute,
	"janitor_retention": 10 * time.Minute,

	"smtp_host":      "localhost",
	"smtp_port":      1025,
	"smtp_username":  "",
	"smtp_password":  "",
	"smtp_from":      "no-reply@example.com",
	"smtp_from_name": "Equipe backend",
	"smtp_tls":       false,
	"smtp_timeout":   10 * time.Second,

	"company_nome":           "",
	"company_endereco":       "",
	"company_cidade_estado":  "",
	"company_telefone":       "",
	"company_cnpj":           "",
	"company_peso_total":     0.0,
	"company_volume":         1,
	"company_transportadora": "",
	"company_observacao":     "",
}

// Loader reads configuration from defaults, an optional dotenv file and the environment.
type Loader struct {
	v    *viper.Viper
	path string

	mu      sync.Mutex
	current Config
}

func NewLoader(path string) *Loader {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
	}
	return &Loader{v: v, path: path}
}

func (l *Loader) Load() (Config, error) {
	if l.path != "" {
		if _, err := os.Stat(l.path); err == nil {
			if err := l.v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", l.path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return Config{}, err
	}
	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

func (l *Loader) decode() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitCSV(cfg.KafkaBrokers)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Watch calls fn with the new configuration each time the config file changes and still
// validates. Only settings that are read per use take effect, the log level for one.
func (l *Loader) Watch(fn func(Config), onErr func(error)) {
	if l.path == "" {
		return
	}
	if _, err := os.Stat(l.path); err != nil {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()
		fn(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) Current() Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Load reads DefaultFile and the environment.
func Load() (Config, error) {
	return NewLoader(DefaultFile).Load()
}

func (c Config) Validate() error {
	var problems []string
	if !slices.Contains([]string{"redis", "kafka"}, c.StreamBackend) {
		problems = append(problems, fmt.Sprintf("STREAM_BACKEND %q is not redis or kafka", c.StreamBackend))
	}
	if c.StreamBackend == "kafka" && len(c.KafkaBrokers) == 0 {
		problems = append(problems, "KAFKA_BROKERS is empty")
	}
	if !slices.Contains([]string{"memory", "redis", "sqlite"}, c.CursorStore) {
		problems = append(problems, fmt.Sprintf("CURSOR_STORE %q is not memory, redis or sqlite", c.CursorStore))
	}
	if c.CursorStore == "sqlite" && c.CursorPath == "" {
		problems = append(problems, "CURSOR_PATH is required for the sqlite cursor store")
	}
	if c.CursorStore == "redis" && c.StreamBackend != "redis" {
		problems = append(problems, "CURSOR_STORE=redis needs STREAM_BACKEND=redis")
	}
	if c.WorkerDomain != "" {
		if _, err := protocol.ParseDomain(c.WorkerDomain); err != nil {
			problems = append(problems, "WORKER_DOMAIN: "+err.Error())
		}
	}
	if c.WorkerIdempotency && c.DatabaseURL == "" {
		problems = append(problems, "WORKER_IDEMPOTENCY needs DATABASE_URL")
	}
	if c.PollInterval <= 0 || c.RequestTimeout <= 0 {
		problems = append(problems, "STREAM_POLL_INTERVAL and REQUEST_TIMEOUT must be positive")
	}
	if c.JanitorRetention <= c.RequestTimeout {
		problems = append(problems, "JANITOR_RETENTION must exceed REQUEST_TIMEOUT")
	}
	if c.BatchSize <= 0 {
		problems = append(problems, "STREAM_BATCH_SIZE must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// splitCSV accepts both repeated values and one comma separated value.
func splitCSV(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

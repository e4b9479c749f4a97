package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const dateLayout = "2006-01-02"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
		RunTimeout   time.Duration `koanf:"run_timeout"` // caps every run, CLI and queued included
	} `koanf:"http"`

	Database struct {
		Driver          string        `koanf:"driver" validate:"oneof=mysql pgx"`
		DSN             string        `koanf:"dsn" validate:"required"`
		MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=0"`
		MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
		BatchSize       int           `koanf:"batch_size" validate:"gte=1"`
	} `koanf:"database"`

	Generate struct {
		Customers        int    `koanf:"customers" validate:"gte=0"`
		Products         int    `koanf:"products" validate:"gte=0"`
		Orders           int    `koanf:"orders" validate:"gte=0"`
		MaxItemsPerOrder int    `koanf:"max_items_per_order" validate:"gte=1"`
		Days             int    `koanf:"days" validate:"gte=1"`
		StartDate        string `koanf:"start_date" validate:"omitempty,datetime=2006-01-02"`
		Seed             uint64 `koanf:"seed"`
		DefaultAnchor    string `koanf:"default_anchor" validate:"omitempty,datetime=2006-01-02"`
	} `koanf:"generate"`

	Redis struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		LockTTL  time.Duration `koanf:"lock_ttl"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
		Topic   string   `koanf:"topic"`
	} `koanf:"kafka"`

	Rabbit struct {
		URL        string `koanf:"url"`
		Exchange   string `koanf:"exchange"`
		RoutingKey string `koanf:"routing_key"`
		// RequestQueue, when set, makes -serve consume run requests from it.
		RequestQueue string `koanf:"request_queue"`
	} `koanf:"rabbitmq"`

	Metrics struct {
		PushgatewayURL string `koanf:"pushgateway_url" validate:"omitempty,url"`
		Job            string `koanf:"job"`
	} `koanf:"metrics"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
		Clients   []Client      `koanf:"clients" validate:"dive"`
	} `koanf:"security"`
}

// Client is an operator allowed to request tokens for the HTTP surface.
type Client struct {
	ID       string   `koanf:"id" validate:"required"`
	Secret   string   `koanf:"secret" validate:"required"`
	Perms    []string `koanf:"perms" validate:"dive,oneof=seed.read seed.write"`
	Disabled bool     `koanf:"disabled"`
}

// Load layers base.yaml, <env>.yaml, ORDERSEED_ environment variables and finally
// overrides (explicitly set CLI flags, keyed by koanf path).
func Load(pathDir, envName string, overrides map[string]any) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix ORDERSEED_, nested with __)
	// e.g. ORDERSEED_DATABASE__DSN, ORDERSEED_REDIS__PASSWORD
	if err := k.Load(env.Provider("ORDERSEED_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ORDERSEED_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	// 4) flags
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("flag overlay: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	cfg.App.Env = envName
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic required when kafka.brokers is set")
	}
	if c.Rabbit.URL != "" && c.Rabbit.Exchange == "" {
		return fmt.Errorf("rabbitmq.exchange required when rabbitmq.url is set")
	}
	// the lock is never renewed, so every run must end before it expires
	if c.Redis.Addr != "" {
		if c.HTTP.RunTimeout <= 0 || c.HTTP.RunTimeout >= c.Redis.LockTTL {
			return fmt.Errorf("http.run_timeout (%s) must be positive and shorter than redis.lock_ttl (%s)",
				c.HTTP.RunTimeout, c.Redis.LockTTL)
		}
	}
	return nil
}

// ValidateServe checks the keys only the HTTP surface needs.
func (c Config) ValidateServe() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwt_secret required")
	}
	if c.Security.TTL <= 0 {
		return fmt.Errorf("security.ttl must be positive")
	}
	return nil
}

// StartDate returns the explicit generation start, or nil when unset.
func (c Config) StartDate() *time.Time {
	if c.Generate.StartDate == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, c.Generate.StartDate)
	if err != nil {
		return nil
	}
	return &t
}

// Anchor is the start used for empty tables; zero means the generator default.
func (c Config) Anchor() time.Time {
	t, _ := time.Parse(dateLayout, c.Generate.DefaultAnchor)
	return t
}

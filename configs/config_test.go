package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_BaseYAML(t *testing.T) {
	cfg, err := Load(".", "none", nil)
	require.NoError(t, err)

	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 500, cfg.Database.BatchSize)
	assert.Equal(t, 300, cfg.Generate.Customers)
	assert.Equal(t, 7, cfg.Generate.MaxItemsPerOrder)
	assert.Equal(t, 15*time.Minute, cfg.Redis.LockTTL)
	assert.Nil(t, cfg.StartDate())
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), cfg.Anchor())
}

func TestLoad_Layering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), `
database:
  driver: mysql
  dsn: base-dsn
  batch_size: 100
generate:
  customers: 1
  orders: 1
  max_items_per_order: 2
  days: 30
`)
	writeFile(t, filepath.Join(dir, "staging.yaml"), `
generate:
  customers: 5
`)
	t.Setenv("ORDERSEED_DATABASE__DSN", "env-dsn")
	t.Setenv("ORDERSEED_GENERATE__DAYS", "7")

	cfg, err := Load(dir, "staging", map[string]any{
		"generate.orders":     15,
		"generate.start_date": "2025-01-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Env)
	assert.Equal(t, "env-dsn", cfg.Database.DSN)
	assert.Equal(t, 5, cfg.Generate.Customers)
	assert.Equal(t, 7, cfg.Generate.Days)
	assert.Equal(t, 15, cfg.Generate.Orders)
	require.NotNil(t, cfg.StartDate())
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *cfg.StartDate())
}

func TestLoad_DevClients(t *testing.T) {
	cfg, err := Load(".", "dev", nil)
	require.NoError(t, err)

	require.Len(t, cfg.Security.Clients, 2)
	assert.Equal(t, "seed-operator", cfg.Security.Clients[0].ID)
	assert.Equal(t, []string{"seed.read", "seed.write"}, cfg.Security.Clients[0].Perms)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.NoError(t, cfg.ValidateServe())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Database.Driver = "mysql"
		c.Database.DSN = "dsn"
		c.Database.BatchSize = 10
		c.Generate.MaxItemsPerOrder = 1
		c.Generate.Days = 1
		return c
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"negative orders", func(c *Config) { c.Generate.Orders = -1 }},
		{"zero max items", func(c *Config) { c.Generate.MaxItemsPerOrder = 0 }},
		{"zero days", func(c *Config) { c.Generate.Days = 0 }},
		{"bad start date", func(c *Config) { c.Generate.StartDate = "01/01/2025" }},
		{"kafka without topic", func(c *Config) { c.Kafka.Brokers = []string{"localhost:9092"} }},
		{"rabbit without exchange", func(c *Config) { c.Rabbit.URL = "amqp://localhost" }},
		{"redis lock shorter than run timeout", func(c *Config) {
			c.Redis.Addr, c.Redis.LockTTL, c.HTTP.RunTimeout = "localhost:6379", 5*time.Minute, 10*time.Minute
		}},
		{"redis without run timeout", func(c *Config) {
			c.Redis.Addr, c.Redis.LockTTL = "localhost:6379", 15*time.Minute
		}},
		{"client without secret", func(c *Config) { c.Security.Clients = []Client{{ID: "ops"}} }},
		{"client with unknown perm", func(c *Config) {
			c.Security.Clients = []Client{{ID: "ops", Secret: "s", Perms: []string{"orders.write"}}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidate_RunTimeoutWithinLockTTL(t *testing.T) {
	var c Config
	c.Database.Driver, c.Database.DSN, c.Database.BatchSize = "mysql", "dsn", 10
	c.Generate.MaxItemsPerOrder, c.Generate.Days = 1, 1
	c.Redis.Addr, c.Redis.LockTTL, c.HTTP.RunTimeout = "localhost:6379", 15*time.Minute, 10*time.Minute
	assert.NoError(t, c.Validate())
}

func TestValidateServe(t *testing.T) {
	var c Config
	assert.Error(t, c.ValidateServe())
	c.App.HTTPAddr = ":8085"
	assert.Error(t, c.ValidateServe())
	c.Security.JWTSecret = "s"
	assert.Error(t, c.ValidateServe())
	c.Security.TTL = time.Minute
	assert.NoError(t, c.ValidateServe())
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

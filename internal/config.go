package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chefgenie/internal/cachestore"
	"github.com/starford/chefgenie/internal/gateway"
	"github.com/starford/chefgenie/internal/netcheck"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Static   StaticConfig      `yaml:"static"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Provider ProviderConfig    `yaml:"provider"`
	Client   ClientConfig      `yaml:"client"`
	Gateway  GatewayConfig     `yaml:"gateway"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Static.Validate(); err != nil {
		return fmt.Errorf("static: %w", err)
	}
	if err := c.Catalog.Validate(); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	if err := c.Provider.Spoonacular.Validate(); err != nil {
		return fmt.Errorf("provider.spoonacular: %w", err)
	}
	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if err := c.Gateway.Validate(); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
	// CORSOrigin is the Access-Control-Allow-Origin answered by the API.
	CORSOrigin string `yaml:"cors_origin"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StaticConfig holds the directory the app shell and catalog are served from.
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the static configuration.
func (c *StaticConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// CatalogConfig locates recipes.json relative to the static directory.
type CatalogConfig struct {
	File  string `yaml:"file"`
	Watch bool   `yaml:"watch"`
	// Throttle bounds how often catalog.updated events go out to subscribers.
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.File, validation.Required),
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// ProviderConfig groups upstream recipe providers.
type ProviderConfig struct {
	Spoonacular SpoonacularConfig `yaml:"spoonacular"`
}

// SpoonacularConfig configures the Spoonacular provider. An empty APIKey
// disables it and /process answers from the catalog only.
type SpoonacularConfig struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
}

// Enabled reports whether an API key is configured.
func (c *SpoonacularConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the Spoonacular configuration.
func (c *SpoonacularConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.RPS, validation.Min(0.0)),
	)
}

// ClientConfig configures the ask command.
type ClientConfig struct {
	ServerURL    string        `yaml:"server_url"`
	Timeout      time.Duration `yaml:"timeout"`
	Connectivity string        `yaml:"connectivity"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
	// CacheDriver is the storage behind the client-side gateway.
	CacheDriver string `yaml:"cache_driver"`
	CacheDSN    string `yaml:"cache_dsn"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Connectivity, validation.Required,
			validation.In(netcheck.ModeAuto, netcheck.ModeOnline, netcheck.ModeOffline)),
		validation.Field(&c.ProbeTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.CacheDriver, validation.Required,
			validation.In(cachestore.DriverMemory, cachestore.DriverSQLite, cachestore.DriverRedis)),
		validation.Field(&c.CacheDSN, validation.When(c.CacheDriver != cachestore.DriverMemory, validation.Required)),
	)
}

// GatewayConfig configures the edge gateway command.
type GatewayConfig struct {
	Name     string   `yaml:"name"`
	Port     int      `yaml:"port"`
	Upstream string   `yaml:"upstream"`
	Shell    string   `yaml:"shell"`
	Manifest []string `yaml:"manifest"`
	Driver   string   `yaml:"driver"`
	// DSN is the SQLite path or the Redis URL, depending on Driver.
	DSN          string        `yaml:"dsn"`
	InstallRetry time.Duration `yaml:"install_retry"`
	// InstallTimeout bounds one install attempt.
	InstallTimeout time.Duration `yaml:"install_timeout"`
}

// Address returns the gateway listen address.
func (c *GatewayConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the gateway configuration.
func (c *GatewayConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Upstream, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Shell, validation.Required),
		validation.Field(&c.Manifest, validation.Required),
		validation.Field(&c.Driver, validation.Required,
			validation.In(cachestore.DriverMemory, cachestore.DriverSQLite, cachestore.DriverRedis)),
		validation.Field(&c.DSN, validation.When(c.Driver != cachestore.DriverMemory, validation.Required)),
		validation.Field(&c.InstallRetry, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.InstallTimeout, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:       5000,
				CORSOrigin: "*",
			},
		},
		Static: StaticConfig{
			Dir: "./static",
		},
		Catalog: CatalogConfig{
			File:     "recipes.json",
			Watch:    true,
			Throttle: time.Second,
		},
		Provider: ProviderConfig{
			Spoonacular: SpoonacularConfig{
				BaseURL: "https://api.spoonacular.com",
				Timeout: 5 * time.Second,
				RPS:     1,
			},
		},
		Client: ClientConfig{
			ServerURL:    "http://localhost:5000",
			Timeout:      10 * time.Second,
			Connectivity: netcheck.ModeAuto,
			ProbeTimeout: time.Second,
			CacheDriver:  cachestore.DriverMemory,
		},
		Gateway: GatewayConfig{
			Name:           gateway.DefaultName,
			Port:           8080,
			Upstream:       "http://localhost:5000",
			Shell:          gateway.DefaultShell,
			Manifest:       append([]string(nil), gateway.DefaultManifest...),
			Driver:         cachestore.DriverSQLite,
			DSN:            "./chefgenie-cache.db",
			InstallRetry:   5 * time.Second,
			InstallTimeout: 10 * time.Second,
		},
	}
}

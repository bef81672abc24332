package config

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultCMSURL is used when no CMS base URL is configured.
const DefaultCMSURL = "http://localhost:1337"

// FallbackOrigins are the allowed cross-origin domains when CORS_ORIGINS is unset.
var FallbackOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://127.0.0.1:5173",
	"https://dashing-longma-925d05.netlify.app",
	"https://khadimy.com",
	"https://www.khadimy.com",
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Site        SiteConfig        `mapstructure:"site"`
	Database    DatabaseConfig    `mapstructure:"database"`
	CMS         CMSConfig         `mapstructure:"cms"`
	CORS        CORSConfig        `mapstructure:"cors"`
	API         APIConfig         `mapstructure:"api"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Seed        SeedConfig        `mapstructure:"seed"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
	Log         LogConfig         `mapstructure:"log"`

	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type SiteConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" validate:"oneof=postgres sqlite"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name" validate:"required"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

// CMSConfig is the client side view of the content API.
type CMSConfig struct {
	URL string `mapstructure:"url"`
}

type CORSConfig struct {
	Origins string `mapstructure:"origins"`
}

type APIConfig struct {
	// ResponseFormat selects the entry envelope: "v5" (flat) or "v4" ({id, attributes}).
	ResponseFormat string `mapstructure:"response_format" validate:"oneof=v4 v5"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email" validate:"omitempty,email"`
	Password string `mapstructure:"password"`
}

type StorageConfig struct {
	LocalPath   string `mapstructure:"local_path"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type SeedConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	LogPath string `mapstructure:"log_path"`
}

// PermissionsConfig lists actions granted to the public role on top of the
// read-only defaults, e.g. "api::registration.registration.create".
type PermissionsConfig struct {
	Public []string `mapstructure:"public"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// BaseURL returns the normalised CMS base URL.
func (c CMSConfig) BaseURL() string {
	return NormalizeBaseURL(c.URL)
}

// AllowedOrigins returns the parsed CORS origin list.
func (c CORSConfig) AllowedOrigins() []string {
	return ParseOrigins(c.Origins)
}

var adminSuffix = regexp.MustCompile(`/admin/?$`)

// NormalizeBaseURL strips an "/admin" suffix (people paste the admin panel URL)
// and a trailing slash.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		u = DefaultCMSURL
	}
	u = adminSuffix.ReplaceAllString(u, "")
	return strings.TrimSuffix(u, "/")
}

// ParseOrigins splits a comma separated origin list. An empty value yields FallbackOrigins.
func ParseOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		out := make([]string, len(FallbackOrigins))
		copy(out, FallbackOrigins)
		return out
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads app.yaml (optional), .env (optional) and the environment.
func Load() (*Config, error) {
	// .env is a convenience for local runs; absence is normal in deployments.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("../..")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("cms.url", "CMS_URL", "STRAPI_URL")
	_ = v.BindEnv("cors.origins", "CORS_ORIGINS")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks struct constraints on a loaded configuration.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 1337)
	v.SetDefault("site.port", 5173)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "khadimy")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("cms.url", DefaultCMSURL)
	v.SetDefault("cors.origins", "")
	v.SetDefault("api.response_format", "v5")
	v.SetDefault("jwt_secret", "changeme-secret")
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("storage.local_path", "./public/uploads")
	v.SetDefault("storage.max_file_size", 10485760)
	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.log_path", "bootstrap_debug.log")
	v.SetDefault("permissions.public", []string{"api::registration.registration.create"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

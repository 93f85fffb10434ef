package config

import (
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host           string
	TrustedProxies []string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
	Migrate         bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	BucketOriginals string
	UseSSL          bool
	Region          string
	UploadURLTTL    time.Duration
}

type RepositoryConfig struct {
	Driver string
}

type Argon2Config struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

type SecurityConfig struct {
	AccessSecret        string
	RefreshSecret       string
	AccessTTL           time.Duration
	RefreshTTL          time.Duration
	AccessCookieMaxAge  int
	RefreshCookieMaxAge int
	CookieDomain        string
	CookieSecure        bool
	CookieSameSite      string
	Argon2              Argon2Config
	SignInMaxAttempts   int
	SignInWindow        time.Duration
}

type JobsConfig struct {
	SweepSchedule string
	LockTTL       time.Duration
}

type AppConfig struct {
	Environment      string
	LogLevel         string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Repository       RepositoryConfig
	Security         SecurityConfig
	Jobs             JobsConfig
	AllowCORSOrigins []string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("GALLERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "load config file")
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("loglevel", "")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")
	v.SetDefault("postgres.migrate", true)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucketoriginals", "gallery-originals")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.uploadurlttl", "15m")

	v.SetDefault("repository.driver", DriverPostgres)

	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.cookiesamesite", "lax")
	v.SetDefault("security.argon2.time", 3)
	v.SetDefault("security.argon2.memory", 64*1024)
	v.SetDefault("security.argon2.threads", 2)
	v.SetDefault("security.argon2.keylen", 32)
	v.SetDefault("security.argon2.saltlen", 16)
	v.SetDefault("security.signinmaxattempts", 5)
	v.SetDefault("security.signinwindow", "15m")

	v.SetDefault("jobs.sweepschedule", "0 */10 * * * *")
	v.SetDefault("jobs.lockttl", "1m")
}

// Keys without defaults are only visible to Unmarshal once bound.
var envKeys = []string{
	"security.accesssecret",
	"security.refreshsecret",
	"security.accessttl",
	"security.refreshttl",
	"security.accesscookiemaxage",
	"security.refreshcookiemaxage",
	"security.cookiedomain",
	"postgres.dsn",
	"storage.endpoint",
	"storage.accesskey",
	"storage.secretkey",
	"redis.password",
	"allowcorsorigins",
	"http.trustedproxies",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// Validate rejects configurations the auth core cannot start with.
func (c *AppConfig) Validate() error {
	var missing []string
	s := c.Security
	if s.AccessSecret == "" {
		missing = append(missing, "security.accesssecret")
	}
	if s.RefreshSecret == "" {
		missing = append(missing, "security.refreshsecret")
	}
	if s.AccessTTL <= 0 {
		missing = append(missing, "security.accessttl")
	}
	if s.RefreshTTL <= 0 {
		missing = append(missing, "security.refreshttl")
	}
	if s.AccessCookieMaxAge <= 0 {
		missing = append(missing, "security.accesscookiemaxage")
	}
	if s.RefreshCookieMaxAge <= 0 {
		missing = append(missing, "security.refreshcookiemaxage")
	}
	if s.CookieDomain == "" {
		missing = append(missing, "security.cookiedomain")
	}
	switch c.Repository.Driver {
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			missing = append(missing, "postgres.dsn")
		}
	case DriverMemory:
	default:
		return errors.Errorf("config: unknown repository driver %q", c.Repository.Driver)
	}
	if len(missing) > 0 {
		return errors.Errorf("config: missing required settings: %s", strings.Join(missing, ", "))
	}

	if s.AccessSecret == s.RefreshSecret {
		return errors.New("config: security.accesssecret and security.refreshsecret must differ")
	}

	switch strings.ToLower(s.CookieSameSite) {
	case "", "lax", "strict", "none":
	default:
		return errors.Errorf("config: invalid security.cookiesamesite %q", s.CookieSameSite)
	}
	return nil
}

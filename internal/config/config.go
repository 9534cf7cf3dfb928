package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Client    ClientConfig    `mapstructure:"client"`
	Store     StoreConfig     `mapstructure:"store"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Etcd      EtcdConfig      `mapstructure:"etcd"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Payment   PaymentConfig   `mapstructure:"payment"`
}

type ServerConfig struct {
	Environment    string   `mapstructure:"environment"`
	SecureCookies  bool     `mapstructure:"secure_cookies"`
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ClientConfig drives the SDK gateway.
type ClientConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	AuthPrefix     string        `mapstructure:"auth_prefix"`
	RefreshPath    string        `mapstructure:"refresh_path"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
}

// StoreConfig selects where the display profile lives:
// memory, redis, etcd or mysql.
type StoreConfig struct {
	Driver    string        `mapstructure:"driver"`
	Namespace string        `mapstructure:"namespace"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// AuthConfig is used by the dev backend.
type AuthConfig struct {
	SigningKey      string        `mapstructure:"signing_key"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	SessionBackend  string        `mapstructure:"session_backend"` // memory or redis
}

type PaymentConfig struct {
	VNPayTmnCode   string `mapstructure:"vnpay_tmn_code"`
	VNPaySecret    string `mapstructure:"vnpay_secret"`
	VNPayURL       string `mapstructure:"vnpay_url"`
	VNPayReturnURL string `mapstructure:"vnpay_return_url"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.environment", "dev")
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.auth_prefix", "/auth/")
	v.SetDefault("client.refresh_path", "/auth/refresh-token")
	v.SetDefault("client.refresh_timeout", 10*time.Second)
	v.SetDefault("client.request_timeout", 30*time.Second)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.namespace", "storefront")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("etcd.endpoints", []string{"localhost:2379"})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)

	v.SetDefault("auth.signing_key", "storefront-dev-signing-key")
	v.SetDefault("auth.access_token_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.session_backend", "memory")

	v.SetDefault("ratelimit.requests_per_second", 20)

	v.SetDefault("payment.vnpay_tmn_code", "STOREDEV")
	v.SetDefault("payment.vnpay_secret", "storefront-dev-vnpay-secret")
	v.SetDefault("payment.vnpay_return_url", "http://localhost:3000/payment/result")
}

// Load reads config.yaml from ./ or ./config, then STOREFRONT_* env vars.
func Load() *Config {
	cfg, err := LoadFrom(viper.New(), ".", "./config")
	if err != nil {
		panic(err)
	}
	return cfg
}

func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

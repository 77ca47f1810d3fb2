package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OAuth    OAuthConfig    `mapstructure:"oauth"`
	Paddle   PaddleConfig   `mapstructure:"paddle"`
	Deeplink DeeplinkConfig `mapstructure:"deeplink"`
	Plan     PlanConfig     `mapstructure:"plan"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret"`
	ExpireHours        int    `mapstructure:"expire_hours"`
	RefreshExpireHours int    `mapstructure:"refresh_expire_hours"`
}

type OAuthConfig struct {
	Google OAuthProviderConfig `mapstructure:"google"`
	Apple  OAuthProviderConfig `mapstructure:"apple"`
	Github OAuthProviderConfig `mapstructure:"github"`
}

type OAuthProviderConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`
}

// PaddleConfig holds merchant credentials and the per-plan price catalog.
// A client token starting with "test_" selects the sandbox API host.
type PaddleConfig struct {
	APIKey             string `mapstructure:"api_key"`
	ClientToken        string `mapstructure:"client_token"`
	WebhookSecret      string `mapstructure:"webhook_secret"`
	BaseURL            string `mapstructure:"base_url"`
	PriceMonthly       string `mapstructure:"price_monthly"`
	PriceYearly        string `mapstructure:"price_yearly"`
	PriceLifetime      string `mapstructure:"price_lifetime"`
	LifetimeDiscountID string `mapstructure:"lifetime_discount_id"`
}

type DeeplinkConfig struct {
	Scheme            string `mapstructure:"scheme"`
	UniversalLinkBase string `mapstructure:"universal_link_base"`
	WebBaseURL        string `mapstructure:"web_base_url"`
	CodeTTLSeconds    int    `mapstructure:"code_ttl_seconds"`
}

type PlanConfig struct {
	SettleDelaySeconds int `mapstructure:"settle_delay_seconds"`
}

type QueueConfig struct {
	WebhookQueue string `mapstructure:"webhook_queue"`
	MaxWorkers   int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type NotifyConfig struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
}

func Load(configPath string) (*Config, error) {
	// Prefer config.local.yaml (real keys, not committed) when present.
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

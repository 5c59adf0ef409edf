package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type TelegramConfig struct {
	Token       string
	ChannelID   int64
	ReviewerID  int64
	PollTimeout time.Duration
}

type IntakeConfig struct {
	MaxDocumentBytes     int64
	MaxImageBytes        int64
	AllowedDocumentTypes []string
	DedupTTL             time.Duration
}

type ReviewConfig struct {
	SessionTimeout time.Duration
}

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type DigestConfig struct {
	Enabled  bool
	Schedule string
}

type SecurityConfig struct {
	SignatureSecret string
}

type AppConfig struct {
	Environment string
	Telegram    TelegramConfig
	Intake      IntakeConfig
	Review      ReviewConfig
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Digest      DigestConfig
	Security    SecurityConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MEDIARELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
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
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram.token is required")
	}
	if c.Telegram.ChannelID == 0 {
		return errors.New("telegram.channelid is required")
	}
	if c.Telegram.ReviewerID == 0 {
		return errors.New("telegram.reviewerid is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Empty defaults register the keys so env-only overrides are picked up.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.channelid", 0)
	v.SetDefault("telegram.reviewerid", 0)
	v.SetDefault("telegram.polltimeout", "30s")

	v.SetDefault("intake.maxdocumentbytes", 50<<20)
	v.SetDefault("intake.maximagebytes", 10<<20)
	v.SetDefault("intake.alloweddocumenttypes",
		"application/pdf,"+
			"application/msword,"+
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document,"+
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	v.SetDefault("intake.dedupttl", "24h")

	v.SetDefault("review.sessiontimeout", "10m")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.accesskey", "")
	v.SetDefault("storage.secretkey", "")
	v.SetDefault("storage.bucket", "mediarelay")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("digest.enabled", true)
	v.SetDefault("digest.schedule", "0 0 9 * * *") // daily at 09:00

	v.SetDefault("security.signaturesecret", "")
}

package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	APIBaseURL     string
	UploadsBaseURL string
	Port           string
	Version        string

	// SessionSecret signs the console session cookie and keys the flash
	// cookie store.
	SessionSecret []byte
	// CSRFKey is always 32 bytes.
	CSRFKey      []byte
	CookieSecure bool

	// Credential storage. Redis wins when both are configured; with neither
	// the console keeps credentials in process memory.
	RedisAddress  string
	RedisPassword string
	DatabaseURL   string

	// Activity events are published only when RabbitMQURL is set.
	RabbitMQURL       string
	ActivityQueueName string

	APITimeout time.Duration
	SessionTTL time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PICKPOINT_API_URL", "http://api-pickpoint.isavralabel.com/api")
	v.SetDefault("PICKPOINT_UPLOADS_URL", "http://api-pickpoint.isavralabel.com")
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("ACTIVITY_QUEUE_NAME", "console_activity")
	v.SetDefault("API_TIMEOUT", "15s")
	v.SetDefault("SESSION_TTL", "168h")
}

// Load reads configuration from the optional file named by
// CONSOLE_CONFIG_FILE and from the environment, which takes precedence.
// Invalid values panic.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	if file := v.GetString("CONSOLE_CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			panic("Failed to read config file: " + err.Error())
		}
	}

	cfg, err := fromViper(v)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	apiTimeout, err := duration(v, "API_TIMEOUT")
	if err != nil {
		return nil, err
	}
	sessionTTL, err := duration(v, "SESSION_TTL")
	if err != nil {
		return nil, err
	}

	apiURL := strings.TrimRight(v.GetString("PICKPOINT_API_URL"), "/")
	if apiURL == "" {
		return nil, fmt.Errorf("PICKPOINT_API_URL must not be empty")
	}

	sessionSecret := secret(v, "SESSION_SECRET")
	csrfSeed := secret(v, "CSRF_KEY")
	csrfKey := sha256.Sum256(csrfSeed)

	return &Config{
		APIBaseURL:        apiURL,
		UploadsBaseURL:    strings.TrimRight(v.GetString("PICKPOINT_UPLOADS_URL"), "/"),
		Port:              v.GetString("PORT"),
		Version:           v.GetString("APP_VERSION"),
		SessionSecret:     sessionSecret,
		CSRFKey:           csrfKey[:],
		CookieSecure:      v.GetBool("COOKIE_SECURE"),
		RedisAddress:      v.GetString("REDIS_ADDRESS"),
		RedisPassword:     v.GetString("REDIS_PASSWORD"),
		DatabaseURL:       v.GetString("DB_CONNECTION_STRING"),
		RabbitMQURL:       v.GetString("RABBITMQ_URL"),
		ActivityQueueName: v.GetString("ACTIVITY_QUEUE_NAME"),
		APITimeout:        apiTimeout,
		SessionTTL:        sessionTTL,
	}, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("%s is not a valid duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

// secret returns the configured value or a random one. A random secret
// invalidates every console cookie on restart.
func secret(v *viper.Viper, key string) []byte {
	if s := v.GetString(key); s != "" {
		return []byte(s)
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("Failed to generate " + key + ": " + err.Error())
	}
	log.Printf("WARNING: %s not set, using a random value; console sessions will not survive a restart", key)
	return []byte(hex.EncodeToString(buf))
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDatabaseURL       = "MEMORYMATCH_DATABASE_URL"
	EnvMQTTBroker        = "MEMORYMATCH_MQTT_BROKER"
	EnvMQTTUsername      = "MEMORYMATCH_MQTT_USERNAME"
	EnvMQTTPassword      = "MEMORYMATCH_MQTT_PASSWORD"
	EnvFirebaseProjectID = "MEMORYMATCH_FIREBASE_PROJECT_ID"
	EnvFirebaseAPIKey    = "MEMORYMATCH_FIREBASE_API_KEY"
	EnvRoomIdleTTL       = "MEMORYMATCH_ROOM_IDLE_TTL"
	EnvAllowOrigin       = "MEMORYMATCH_ALLOW_ORIGIN"
	EnvTLSCertFile       = "MEMORYMATCH_TLS_CERT_FILE"
	EnvTLSKeyFile        = "MEMORYMATCH_TLS_KEY_FILE"

	DefaultDatabaseURL = "sqlite://memorymatch.db"
	DefaultMQTTBroker  = "tcp://localhost:1883"
	DefaultRoomIdleTTL = 30 * time.Minute
)

// Config is the environment driven configuration of the server.
type Config struct {
	DatabaseURL       string
	MQTTBroker        string
	MQTTUsername      string
	MQTTPassword      string
	FirebaseProjectID string
	FirebaseAPIKey    string
	RoomIdleTTL       time.Duration
	AllowOrigin       string
	TLSCertFile       string
	TLSKeyFile        string
}

// AuthEnabled reports whether participant identities are verified with Firebase.
func (c *Config) AuthEnabled() bool {
	return c.FirebaseProjectID != ""
}

// TLSEnabled reports whether both a certificate and a key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// Load reads .env files, if present, and then the process environment.
// Variables already set in the environment take precedence over the files.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %v", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from an environment lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DatabaseURL:       valueOr(getenv(EnvDatabaseURL), DefaultDatabaseURL),
		MQTTBroker:        valueOr(getenv(EnvMQTTBroker), DefaultMQTTBroker),
		MQTTUsername:      getenv(EnvMQTTUsername),
		MQTTPassword:      getenv(EnvMQTTPassword),
		FirebaseProjectID: getenv(EnvFirebaseProjectID),
		FirebaseAPIKey:    getenv(EnvFirebaseAPIKey),
		RoomIdleTTL:       DefaultRoomIdleTTL,
		AllowOrigin:       valueOr(getenv(EnvAllowOrigin), "*"),
		TLSCertFile:       getenv(EnvTLSCertFile),
		TLSKeyFile:        getenv(EnvTLSKeyFile),
	}

	if raw := strings.TrimSpace(getenv(EnvRoomIdleTTL)); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", EnvRoomIdleTTL, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("%s must be positive", EnvRoomIdleTTL)
		}
		cfg.RoomIdleTTL = ttl
	}

	return cfg, nil
}

func valueOr(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration required by the API process.
// Values come from env, optionally seeded by a .env file in the working directory.
// Every key is optional; defaults keep the demo runnable with an empty environment.
type Config struct {
	App      AppConfig
	OpenAI   OpenAIConfig
	Twilio   TwilioConfig
	Calls    CallsConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Name    string
	Version string
	Env     string
	Debug   bool

	Host string
	Port int

	ShutdownTimeout time.Duration
}

// OpenAIConfig is forward-compatible only; no code path calls a model provider yet.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	TTSModel     string
	WhisperModel string
}

// TwilioConfig is forward-compatible only; calls are placed by the demo dialer.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

type CallsConfig struct {
	// ProcessingDelay is the simulated telephony latency of the demo dialer.
	ProcessingDelay time.Duration
	// MaxRecords bounds the in-memory call store; oldest records are evicted first.
	MaxRecords int
}

// DatabaseConfig and RedisConfig are only probed by /health when set.
type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	URL string
}

const (
	keyAppName         = "APP_NAME"
	keyAppVersion      = "APP_VERSION"
	keyAppEnv          = "APP_ENV"
	keyDebug           = "DEBUG"
	keyHost            = "API_HOST"
	keyPort            = "API_PORT"
	keyShutdownTimeout = "SHUTDOWN_TIMEOUT"

	keyOpenAIKey          = "OPENAI_API_KEY"
	keyOpenAIModel        = "OPENAI_MODEL"
	keyOpenAITTSModel     = "OPENAI_TTS_MODEL"
	keyOpenAIWhisperModel = "OPENAI_WHISPER_MODEL"

	keyTwilioSID   = "TWILIO_ACCOUNT_SID"
	keyTwilioToken = "TWILIO_AUTH_TOKEN"
	keyTwilioPhone = "TWILIO_PHONE_NUMBER"

	keyCallDelay      = "CALL_PROCESSING_DELAY"
	keyCallMaxRecords = "CALL_MAX_RECORDS"

	keyDatabaseURL = "DATABASE_URL"
	keyRedisURL    = "REDIS_URL"
)

// Load reads configuration from the process environment and ./.env.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.AllowEmptyEnv(false)
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read .env: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) (Config, error) {
	var parseErrs []error

	c := Config{}
	c.App.Name = strings.TrimSpace(v.GetString(keyAppName))
	c.App.Version = strings.TrimSpace(v.GetString(keyAppVersion))
	c.App.Env = strings.TrimSpace(v.GetString(keyAppEnv))
	c.App.Host = strings.TrimSpace(v.GetString(keyHost))

	var err error
	if c.App.Debug, err = parseBool(v, keyDebug); err != nil {
		parseErrs = append(parseErrs, err)
	}
	if c.App.Port, err = parseInt(v, keyPort); err != nil {
		parseErrs = append(parseErrs, err)
	}
	if c.App.ShutdownTimeout, err = parseDuration(v, keyShutdownTimeout); err != nil {
		parseErrs = append(parseErrs, err)
	}

	c.OpenAI.APIKey = v.GetString(keyOpenAIKey)
	c.OpenAI.Model = strings.TrimSpace(v.GetString(keyOpenAIModel))
	c.OpenAI.TTSModel = strings.TrimSpace(v.GetString(keyOpenAITTSModel))
	c.OpenAI.WhisperModel = strings.TrimSpace(v.GetString(keyOpenAIWhisperModel))

	c.Twilio.AccountSID = strings.TrimSpace(v.GetString(keyTwilioSID))
	c.Twilio.AuthToken = v.GetString(keyTwilioToken)
	c.Twilio.PhoneNumber = strings.TrimSpace(v.GetString(keyTwilioPhone))

	if c.Calls.ProcessingDelay, err = parseDuration(v, keyCallDelay); err != nil {
		parseErrs = append(parseErrs, err)
	}
	if c.Calls.MaxRecords, err = parseInt(v, keyCallMaxRecords); err != nil {
		parseErrs = append(parseErrs, err)
	}

	c.Database.URL = strings.TrimSpace(v.GetString(keyDatabaseURL))
	c.Redis.URL = strings.TrimSpace(v.GetString(keyRedisURL))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyAppName, "AI Calling Agent")
	v.SetDefault(keyAppVersion, "1.0.0")
	v.SetDefault(keyAppEnv, "local")
	v.SetDefault(keyDebug, "true")
	v.SetDefault(keyHost, "0.0.0.0")
	v.SetDefault(keyPort, "8000")
	v.SetDefault(keyShutdownTimeout, "20s")

	v.SetDefault(keyOpenAIKey, "")
	v.SetDefault(keyOpenAIModel, "gpt-4")
	v.SetDefault(keyOpenAITTSModel, "tts-1")
	v.SetDefault(keyOpenAIWhisperModel, "whisper-1")

	v.SetDefault(keyTwilioSID, "")
	v.SetDefault(keyTwilioToken, "")
	v.SetDefault(keyTwilioPhone, "")

	v.SetDefault(keyCallDelay, "2s")
	v.SetDefault(keyCallMaxRecords, "1000")

	v.SetDefault(keyDatabaseURL, "")
	v.SetDefault(keyRedisURL, "")
}

// Validate fills derived defaults and reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Name == "" {
		errs = append(errs, errors.New("APP_NAME must not be empty"))
	}
	if c.App.Env == "" {
		c.App.Env = "local"
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("API_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.ShutdownTimeout <= 0 {
		c.App.ShutdownTimeout = 20 * time.Second
	}

	if c.Calls.ProcessingDelay < 0 {
		errs = append(errs, fmt.Errorf("CALL_PROCESSING_DELAY must not be negative, got %s", c.Calls.ProcessingDelay))
	}
	if c.Calls.MaxRecords <= 0 {
		errs = append(errs, fmt.Errorf("CALL_MAX_RECORDS must be > 0, got %d", c.Calls.MaxRecords))
	}

	// Twilio credentials are all-or-nothing.
	if (c.Twilio.AccountSID == "") != (c.Twilio.AuthToken == "") {
		errs = append(errs, errors.New("TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN must be set together"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DebugLogging reports whether the logger should run at debug level.
func (c Config) DebugLogging() bool {
	return c.App.Debug || c.App.Env == "local" || c.App.Env == "dev"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func parseInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func parseBool(v *viper.Viper, key string) (bool, error) {
	raw := strings.ToLower(strings.TrimSpace(v.GetString(key)))
	switch raw {
	case "1", "true", "yes", "on":
		return true, nil
	case "", "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 2s or 500ms, got %q", key, raw)
	}
	return d, nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}

// Package config manages application configuration from default values,
// an optional config.yaml, and TGH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrConfiguration = errors.New("configuration error")

const defaultInstruction = "You are analyzing Telegram users from gambling-related groups. " +
	"Based on the user data below, decide whether this is a real person genuinely interested " +
	"in gambling or betting, rather than a bot, a spammer, or an advertising account. " +
	`Respond with a JSON object of the form {"valid": true} or {"valid": false} and nothing else.`

var defaults = map[string]any{
	"log.level":  "info",
	"log.format": "json",

	"telegram.session_file": "tgharvest.session",

	"harvest.data_folder":         "data",
	"harvest.fast_mode_delay":     100 * time.Millisecond,
	"harvest.detailed_mode_delay": 500 * time.Millisecond,
	"harvest.api_delay":           200 * time.Millisecond,
	"harvest.invite_pause":        60 * time.Second,
	"harvest.max_common_groups":   5,
	"harvest.max_cache_groups":    10,
	"harvest.progress_every":      25,

	"csv.encoding":  "UTF-8",
	"csv.delimiter": ",",
	"csv.crlf":      false,

	"ai.provider":         "openrouter",
	"ai.base_url":         "https://openrouter.ai/api/v1",
	"ai.model":            "openai/gpt-4o-mini",
	"ai.instruction":      defaultInstruction,
	"ai.temperature":      0.1,
	"ai.max_tokens":       100,
	"ai.timeout":          30 * time.Second,
	"ai.validation_delay": time.Second,

	"sheets.worksheet": "Sheet1",
}

// Config is the full application configuration. Values can be set through
// config.yaml or TGH_* environment variables (e.g. TGH_AI_TOKEN).
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Harvest  HarvestConfig  `mapstructure:"harvest"`
	CSV      CSVConfig      `mapstructure:"csv"`
	AI       AIConfig       `mapstructure:"ai"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// TelegramConfig holds the MTProto credentials. They are optional so that
// offline operations like process and upload can run without them.
type TelegramConfig struct {
	APIID       int    `mapstructure:"api_id"`
	APIHash     string `mapstructure:"api_hash"`
	Phone       string `mapstructure:"phone"`
	SessionFile string `mapstructure:"session_file"`
}

type HarvestConfig struct {
	DataFolder        string        `mapstructure:"data_folder"         validate:"required"`
	FastModeDelay     time.Duration `mapstructure:"fast_mode_delay"     validate:"min=0"`
	DetailedModeDelay time.Duration `mapstructure:"detailed_mode_delay" validate:"min=0"`
	APIDelay          time.Duration `mapstructure:"api_delay"           validate:"min=0"`
	InvitePause       time.Duration `mapstructure:"invite_pause"        validate:"min=0"`
	MaxCommonGroups   int           `mapstructure:"max_common_groups"   validate:"gt=0"`
	MaxCacheGroups    int           `mapstructure:"max_cache_groups"    validate:"gt=0"`
	ProgressEvery     int           `mapstructure:"progress_every"      validate:"gt=0"`
}

type CSVConfig struct {
	Encoding  string `mapstructure:"encoding"  validate:"required"`
	Delimiter string `mapstructure:"delimiter" validate:"required,len=1"`
	CRLF      bool   `mapstructure:"crlf"`
}

type AIConfig struct {
	Provider        string        `mapstructure:"provider"         validate:"required,oneof=openrouter gemini"`
	Token           string        `mapstructure:"token"`
	BaseURL         string        `mapstructure:"base_url"         validate:"required,url"`
	Model           string        `mapstructure:"model"            validate:"required"`
	Instruction     string        `mapstructure:"instruction"      validate:"required"`
	Temperature     float32       `mapstructure:"temperature"      validate:"min=0,max=2"`
	MaxTokens       int           `mapstructure:"max_tokens"       validate:"gt=0"`
	Timeout         time.Duration `mapstructure:"timeout"          validate:"required,min=1s,max=10m"`
	ValidationDelay time.Duration `mapstructure:"validation_delay" validate:"min=0"`
}

type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Worksheet       string `mapstructure:"worksheet" validate:"required"`
}

type NotifyConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Load reads configuration in precedence order: defaults, then config.yaml
// if present, then environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TGH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: failed to read config file: %v", ErrConfiguration, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return cfg, nil
}

// RequireTelegram checks that MTProto credentials are present. Called by
// operations that talk to the messaging platform.
func (c *Config) RequireTelegram() error {
	if c.Telegram.APIID == 0 || c.Telegram.APIHash == "" || c.Telegram.Phone == "" {
		return fmt.Errorf("%w: telegram api_id, api_hash and phone are required for this operation", ErrConfiguration)
	}
	return nil
}

// RequireAIToken checks that a validation backend token is present.
func (c *Config) RequireAIToken() error {
	if c.AI.Token == "" {
		return fmt.Errorf("%w: ai token is required for validation", ErrConfiguration)
	}
	return nil
}

// RequireSheets checks that spreadsheet credentials are present.
func (c *Config) RequireSheets() error {
	if c.Sheets.CredentialsFile == "" {
		return fmt.Errorf("%w: sheets credentials_file is required for upload", ErrConfiguration)
	}
	return nil
}

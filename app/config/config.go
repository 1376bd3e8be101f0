package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    Log    `yaml:"log"`
	Server Server `yaml:"server"`
	OpenAI OpenAI `yaml:"openai"`
	Voice  Voice  `yaml:"voice"`
	SMTP   SMTP   `yaml:"smtp"`
	Quota  Quota  `yaml:"quota"`
}

type Server struct {
	// Listen address
	Addr string `yaml:"addr" example:":3001" validate:"required"`
	// Frontend origin allowed by CORS, empty allows any
	FrontendOrigin string `yaml:"frontend_origin" example:"https://jpixelate.dev"`
}

type OpenAI struct {
	// OpenAI-compatible base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1" validate:"required"`
	// OpenAI token, chat endpoints report misconfiguration when empty
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// Chat completion model
	Model string `yaml:"model" example:"openai/gpt-4o-mini" validate:"required"`
}

type Voice struct {
	// Realtime transcription token endpoint
	TokenURL string `yaml:"token_url" example:"https://api.assemblyai.com/v2/realtime/token" validate:"required"`
	// Transcription provider API key
	APIKey string `yaml:"api_key"`
}

type SMTP struct {
	// SMTP relay host
	Host string `yaml:"host" example:"smtp.gmail.com"`
	// SMTP relay port
	Port int `yaml:"port" example:"587"`
	// SMTP username, also used as the sender address
	User string `yaml:"user" example:"noreply@jpixelate.dev"`
	// SMTP password
	Pass string `yaml:"pass"`
	// Address quote requests are delivered to, defaults to the SMTP user
	ContactEmail string `yaml:"contact_email" example:"hello@jpixelate.dev"`
}

type Quota struct {
	// Chat messages allowed per caller per day
	DailyLimit int `yaml:"daily_limit" example:"5" validate:"min=1"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Server.Addr == "" {
		result.Server.Addr = ":3001"
	}
	if result.OpenAI.BaseURL == "" {
		result.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if result.OpenAI.Model == "" {
		result.OpenAI.Model = "gpt-4o-mini"
	}
	if result.Voice.TokenURL == "" {
		result.Voice.TokenURL = "https://api.assemblyai.com/v2/realtime/token"
	}
	if result.SMTP.Port == 0 {
		result.SMTP.Port = 587
	}
	if result.SMTP.ContactEmail == "" {
		result.SMTP.ContactEmail = result.SMTP.User
	}
	if result.Quota.DailyLimit == 0 {
		result.Quota.DailyLimit = 5
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

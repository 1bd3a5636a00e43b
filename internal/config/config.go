package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	Push     PushConfig     `yaml:"push"`
	Presence PresenceConfig `yaml:"presence"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL      string `yaml:"base_url"`
	WebsocketURL string `yaml:"websocket_url"`
	Token        string `yaml:"token"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PushConfig struct {
	UserID     string `yaml:"user_id"`
	FlagsPath  string `yaml:"flags_path"`
	Supported  bool   `yaml:"supported"`
	Permission string `yaml:"permission"`
	Endpoint   string `yaml:"endpoint"`
	P256dhKey  string `yaml:"p256dh_key"`
	AuthKey    string `yaml:"auth_key"`
}

type PresenceConfig struct {
	// TimeoutSeconds bounds each remote presence fetch.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:     8005,
			Env:      "dev",
			LogLevel: "debug",
		},
		API: APIConfig{
			BaseURL:      "http://localhost:8080/api",
			WebsocketURL: "ws://localhost:8080/api/ws/presence",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			DB:   0,
		},
		Push: PushConfig{
			FlagsPath:  "campus-client.db",
			Supported:  true,
			Permission: "default",
		},
		Presence: PresenceConfig{
			TimeoutSeconds: 10,
		},
	}

	// Load from yaml file if exists
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override with environment variables
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if baseURL := os.Getenv("API_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if wsURL := os.Getenv("API_WEBSOCKET_URL"); wsURL != "" {
		cfg.API.WebsocketURL = wsURL
	}
	if token := os.Getenv("API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		cfg.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("REDIS_PORT"); redisPort != "" {
		if p, err := strconv.Atoi(redisPort); err == nil {
			cfg.Redis.Port = p
		}
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		cfg.Redis.Password = redisPassword
	}
	if userID := os.Getenv("PUSH_USER_ID"); userID != "" {
		cfg.Push.UserID = userID
	}
	if flagsPath := os.Getenv("PUSH_FLAGS_PATH"); flagsPath != "" {
		cfg.Push.FlagsPath = flagsPath
	}
	if endpoint := os.Getenv("PUSH_ENDPOINT"); endpoint != "" {
		cfg.Push.Endpoint = endpoint
	}
	if p256dh := os.Getenv("PUSH_P256DH_KEY"); p256dh != "" {
		cfg.Push.P256dhKey = p256dh
	}
	if auth := os.Getenv("PUSH_AUTH_KEY"); auth != "" {
		cfg.Push.AuthKey = auth
	}
	if permission := os.Getenv("PUSH_PERMISSION"); permission != "" {
		cfg.Push.Permission = permission
	}

	return cfg, nil
}

package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/i-vertix/assethistory/internal/db"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// HistoryConfig holds read-layer defaults.
type HistoryConfig struct {
	// ListLimit is the default page size when the caller does not supply one.
	ListLimit int
}

// TypeConfig declares one monitored object type and where its instances live
// in the host schema. Column names default like the registry defaults.
type TypeConfig struct {
	Name             string `mapstructure:"name"`
	Table            string `mapstructure:"table"`
	IDColumn         string `mapstructure:"id_column"`
	NameColumn       string `mapstructure:"name_column"`
	AssigneeColumn   string `mapstructure:"assignee_column"`
	SoftDeleteColumn string `mapstructure:"soft_delete_column"`
	Dynamic          bool   `mapstructure:"dynamic"`
	Monitored        bool   `mapstructure:"monitored"`
}

// Config is the full application configuration.
type Config struct {
	DB      db.Config
	Server  ServerConfig
	History HistoryConfig
	Types   []TypeConfig
}

// Load reads config.yaml from configPath, with environment overrides
// (AH_DB_HOST, AH_SERVER_ADDR, ...). Missing file falls back to defaults.
func Load(configPath string) (Config, error) {
	cfg := Config{
		DB: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		History: HistoryConfig{ListLimit: 20},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("AH")

	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("server.addr")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Use defaults + env.
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("database.host") {
		cfg.DB.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.DB.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.DB.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.DB.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DB.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.DB.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("server.addr") {
		cfg.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("history.list_limit") {
		cfg.History.ListLimit = v.GetInt("history.list_limit")
	}
	if v.IsSet("types") {
		if err := v.UnmarshalKey("types", &cfg.Types); err != nil {
			return Config{}, fmt.Errorf("failed to parse monitored type definitions: %w", err)
		}
	}

	return cfg, nil
}

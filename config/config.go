package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server  Server
	Gemini  Gemini
	Session Session
}

type Server struct {
	Port string
}
type Gemini struct {
	ApiKey string
	Model  string
}
type Session struct {
	TTLMinutes int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("SESSION_TTL_MINUTES", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Gemini.ApiKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")
	config.Session.TTLMinutes = viper.GetInt("SESSION_TTL_MINUTES")

	log.Info().
		Str("serverPort", config.Server.Port).
		Str("geminiModel", config.Gemini.Model).
		Int("sessionTTLMinutes", config.Session.TTLMinutes).
		Bool("geminiApiKeySet", config.Gemini.ApiKey != "").
		Msg("Config loaded")
	return &config, nil
}

package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Supabase Supabase
	Session  Session
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Supabase struct {
	URL        string
	ServiceKey string
	Bucket     string
}

type Session struct {
	// TabSwitchLimit is the number of reported tab switches tolerated
	// before a response is flagged (or force-submitted on timed polls).
	TabSwitchLimit int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetDefault("SESSION_TAB_SWITCH_LIMIT", 3)
	viper.SetDefault("SUPABASE_BUCKET", "poll-uploads")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Supabase.URL = viper.GetString("SUPABASE_URL")
	config.Supabase.ServiceKey = viper.GetString("SUPABASE_SERVICE_KEY")
	config.Supabase.Bucket = viper.GetString("SUPABASE_BUCKET")

	config.Session.TabSwitchLimit = viper.GetInt("SESSION_TAB_SWITCH_LIMIT")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}

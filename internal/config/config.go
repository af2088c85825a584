package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the relay reads from the environment.
type Config struct {
	Port        string
	UsersFile   string
	RoomsFile   string
	LogLevel    string
	ProfileMode string
}

// Load reads configuration from the environment, pulling in a .env file
// first when one is present.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug(".env file not found, using environment only")
	}

	return Config{
		Port:        getEnv("PORT", "5050"),
		UsersFile:   getEnv("USERS_FILE", "users.txt"),
		RoomsFile:   getEnv("ROOMS_FILE", "rooms.txt"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ProfileMode: getEnv("PROFILE_MODE", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

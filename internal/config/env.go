package config

import (
	"log/slog"

	"github.com/joho/godotenv"
)

// envFiles are tried in order; the first one found is loaded.
var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads variables from the first .env file present. Variables
// already set in the process environment win.
func loadEnvFiles() string {
	for _, name := range envFiles {
		if err := godotenv.Load(name); err == nil {
			slog.Debug("Loaded environment file", slog.String("file", name))
			return name
		}
	}
	return ""
}

package env

import (
	"os"

	"github.com/joho/godotenv"
)

var Env map[string]string

func GetEnv(key, def string) string {
	// First check our loaded Env map
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	// Fallback to OS environment variables (for Docker/tests)
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func SetupEnvFile() {
	// Look for .env file in project root
	envFiles := []string{
		".env",          // Current directory
		"../../.env",    // From cmd/paybridge to project root
		"../../../.env", // Fallback for deeper nesting
	}

	for _, envFile := range envFiles {
		if loaded, err := godotenv.Read(envFile); err == nil {
			Env = loaded
			return
		}
	}

	// No .env file found. Deployed environments configure everything
	// through the process environment, so this is not fatal.
	Env = map[string]string{}
}

func IsProduction() bool {
	return GetEnv("APP_ENV", "development") == "production"
}

func IsSquareProduction() bool {
	return GetEnv("SQUARE_ENV", "sandbox") == "production"
}

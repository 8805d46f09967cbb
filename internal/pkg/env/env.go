package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Env holds the values read from the nearest .env file. The process
// environment always wins over the file so container deployments can
// override file-based defaults without editing it.
var Env map[string]string

// GetEnv returns the configuration value for key, preferring the process
// environment, then the loaded .env file, then the given default.
func GetEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val, ok := Env[key]; ok && val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the nearest .env file. Deployments that inject all
// configuration through the process environment can run without one.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env", // binaries started from cmd/<name>
	}
	for _, path := range candidates {
		values, err := godotenv.Read(path)
		if err == nil {
			Env = values
			return
		}
	}
	log.Print("env: no .env file found, relying on the process environment")
}

// IsDev reports whether the app runs in development mode.
func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}

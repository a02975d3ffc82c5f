package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gitlab.com/contactbook/contacts-api/internal/auth"
	"gitlab.com/contactbook/contacts-api/internal/service"
)

// Usage example on the command line:
// > PORT=8080 DBHOST=localhost DBUSER=dirk DBPWD=bullo92 SECRET_KEY=change-me GIN_MODE=release GIN_LOGGING=OFF go run main.go
func main() {
	// Load .env if it exists (local dev), ignore if not.
	_ = godotenv.Load()

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		log.Fatal("SECRET_KEY env variable must be set")
	}
	tokens := auth.NewTokenManager(
		secret,
		getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
	)

	sqlDB := service.CreateDatabase()
	service.SetupDatabaseWrapper(sqlDB)
	router := service.SetupHttpRouter(tokens)
	_, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		fmt.Println("could not parse PORT env variable", err)
		panic(err)
	}
	router.Run(":" + os.Getenv("PORT"))
}

// getEnvAsDuration reads a duration from the environment, falling back to the
// specified default if the variable is unset or does not parse.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		fmt.Printf("could not parse %s env variable, using default %v\n", key, fallback)
		return fallback
	}
	return duration
}

package env

import (
	"fmt"
	"log"
	"os"

	"schoolbus-uitest/internal/application/port/output"

	envparse "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var _ output.ConfigPort = (*EnvService)(nil)

// EnvService reads the process environment.
type EnvService struct{}

// NewEnvService loads .env and then .env.<APP_ENV> into the process
// environment. Missing files are not an error.
func NewEnvService() *EnvService {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	envFile := fmt.Sprintf(".env.%s", appEnv)
	if err := godotenv.Overload(envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load %s: %v", envFile, err)
	}

	return &EnvService{}
}

func (e *EnvService) Environ() map[string]string {
	return envparse.ToMap(os.Environ())
}

package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/caarlos0/env/v11"
)

type Configuration struct {
	ApiPort string `json:"api_port" env:"PORT"`

	Database string `json:"database" env:"DATABASE"` // "sqlite3" ou "postgres"
	DbHost   string `json:"db_host" env:"DB_HOST"`
	DbPort   string `json:"db_port" env:"DB_PORT"`
	DbUser   string `json:"db_user" env:"DB_USER"`
	DbName   string `json:"db_name" env:"DB_NAME"`
	DbPass   string `json:"db_pass" env:"DB_PASS"`

	Security struct {
		JwtSecret string `json:"jwt_secret" env:"JWT_SECRET"`
	} `json:"security"`
}

// Get reads the JSON config file (when present) and applies env overrides on
// top, so deployments can run from env alone without a config.json.
func Get(path string) Configuration {
	var c Configuration

	if b, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(b, &c); err != nil {
			log.Fatal(err)
		}
	}

	if err := env.Parse(&c); err != nil {
		log.Fatal(err)
	}

	// defaults (pra evitar nil/zero chato)
	if c.ApiPort == "" {
		c.ApiPort = "3001"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}

	return c
}

package main

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DataDir     string
	DatabaseURL string

	SourceURL string
	HTTPPort  string

	CronSpec string
	Location string
}

func LoadConfig() (Config, error) {
	if err := godotenv.Overload(); err != nil {
		log.Println(errors.New("Error loading .env file"))
	}

	cfg := Config{
		DataDir:   "exchange_rates",
		SourceURL: "https://www.alsoug.com/currency",
		HTTPPort:  "8080",
		CronSpec:  "0 9 * * *",
		Location:  "Africa/Khartoum",
	}

	if v := strings.TrimSpace(os.Getenv("DATA_DIR")); v != "" {
		cfg.DataDir = v
	}

	// Optional: when set, snapshots live in Postgres instead of CSV files.
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if v := strings.TrimSpace(os.Getenv("SOURCE_URL")); v != "" {
		cfg.SourceURL = v
	}
	if p := strings.TrimSpace(os.Getenv("PORT")); p != "" {
		cfg.HTTPPort = p
	}
	if v := strings.TrimSpace(os.Getenv("CRON_SPEC")); v != "" {
		cfg.CronSpec = v
	}
	if v := strings.TrimSpace(os.Getenv("LOCATION")); v != "" {
		cfg.Location = v
	}

	return cfg, nil
}

// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration for the empleos service.
type Config struct {
	Port               string
	DatabaseURL        string
	RedisURL           string
	JSearchAPIKey      string
	JSearchAPIHost     string // e.g. "jsearch.p.rapidapi.com"
	CheckIntervalHours int    // how often the notification recheck fires
	SearchPageSize     int    // page length assumed by the JSearch API
	DBMaxConns         int    // Postgres pool cap; 0 keeps the driver default
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	apiKey := os.Getenv("JSEARCH_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("JSEARCH_API_KEY is required")
	}

	apiHost := os.Getenv("JSEARCH_API_HOST")
	if apiHost == "" {
		apiHost = "jsearch.p.rapidapi.com"
	}

	interval := 1
	if s := os.Getenv("CHECK_INTERVAL_HOURS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("CHECK_INTERVAL_HOURS must be a positive integer, got %q", s)
		}
		interval = v
	}

	pageSize := 10
	if s := os.Getenv("SEARCH_PAGE_SIZE"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("SEARCH_PAGE_SIZE must be a positive integer, got %q", s)
		}
		pageSize = v
	}

	maxConns := 0
	if s := os.Getenv("DB_MAX_CONNS"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return nil, fmt.Errorf("DB_MAX_CONNS must be a positive integer, got %q", s)
		}
		maxConns = v
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Port:               port,
		DatabaseURL:        dbURL,
		RedisURL:           redisURL,
		JSearchAPIKey:      apiKey,
		JSearchAPIHost:     apiHost,
		CheckIntervalHours: interval,
		SearchPageSize:     pageSize,
		DBMaxConns:         maxConns,
	}, nil
}

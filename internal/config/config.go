package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string
	RulesPath string

	JobPath        string
	AttachmentPath string
	TemplatePath   string
	QCPath         string
	ExistingPDFDir string
	ProposedPDFDir string

	SpanTolerance float64
	OutputDecimal bool
	OpenOutput    bool

	CoordinatePlaces int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "output")),
		RulesPath: getEnv("RULES_PATH", ""),

		JobPath:        getEnv("JOB_PATH", ""),
		AttachmentPath: getEnv("ATTACHMENT_PATH", ""),
		TemplatePath:   getEnv("TEMPLATE_PATH", ""),
		QCPath:         getEnv("QC_PATH", ""),
		ExistingPDFDir: getEnv("EXISTING_PDF_DIR", ""),
		ProposedPDFDir: getEnv("PROPOSED_PDF_DIR", ""),

		SpanTolerance: getEnvFloat("SPAN_TOLERANCE", 3),
		OutputDecimal: getEnvBool("OUTPUT_DECIMAL", true),
		OpenOutput:    getEnvBool("OPEN_OUTPUT", false),

		CoordinatePlaces: getEnvInt("COORDINATE_PLACES", 7),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

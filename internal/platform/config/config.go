package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr                string
	DatabaseURL         string
	JWTSecret           string
	Environment         string
	OrgCode             string
	HourlyRate          float64
	StreakBonusAmount   float64
	StreakThresholdDays int
	StreakWindowDays    int
	EligibleRoles       []string
	PayslipDir          string
	PayslipEncryptKey   string
	AutorunEnabled      bool
	AutorunInterval     time.Duration
	EmailFrom           string
	EmailEnabled        bool
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	SMTPUseTLS          bool
	RunMigrations       bool
	MigrationsDir       string
	MaxBodyBytes        int64
	MetricsEnabled      bool
}

func Load() Config {
	return Config{
		Addr:                getEnv("APP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		Environment:         getEnv("APP_ENV", "development"),
		OrgCode:             getEnv("ORG_CODE", "PAYDESK"),
		HourlyRate:          getEnvFloat("HOURLY_RATE", 125),
		StreakBonusAmount:   getEnvFloat("STREAK_BONUS_AMOUNT", 500),
		StreakThresholdDays: getEnvInt("STREAK_THRESHOLD_DAYS", 28),
		StreakWindowDays:    getEnvInt("STREAK_WINDOW_DAYS", 28),
		EligibleRoles:       getEnvList("ELIGIBLE_ROLES", []string{"employee", "manager", "ceo"}),
		PayslipDir:          getEnv("PAYSLIP_DIR", "payslips"),
		PayslipEncryptKey:   getEnv("PAYSLIP_ENCRYPTION_KEY", ""),
		AutorunEnabled:      getEnvBool("PAYROLL_AUTORUN_ENABLED", false),
		AutorunInterval:     getEnvDuration("PAYROLL_AUTORUN_INTERVAL", time.Hour),
		EmailFrom:           getEnv("EMAIL_FROM", "no-reply@example.com"),
		EmailEnabled:        getEnvBool("EMAIL_ENABLED", false),
		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUser:            getEnv("SMTP_USER", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:          getEnvBool("SMTP_USE_TLS", true),
		RunMigrations:       getEnvBool("RUN_MIGRATIONS", true),
		MigrationsDir:       getEnv("MIGRATIONS_DIR", "migrations"),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		MetricsEnabled:      getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
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
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.HourlyRate <= 0 {
		return fmt.Errorf("HOURLY_RATE must be positive")
	}
	if c.StreakThresholdDays <= 0 || c.StreakWindowDays <= 0 {
		return fmt.Errorf("streak threshold and window must be positive")
	}
	if c.StreakThresholdDays > c.StreakWindowDays {
		return fmt.Errorf("STREAK_THRESHOLD_DAYS cannot exceed STREAK_WINDOW_DAYS")
	}
	if len(c.EligibleRoles) == 0 {
		return fmt.Errorf("ELIGIBLE_ROLES must name at least one role")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	API_HOST   = os.Getenv("API_HOST")
	API_ENV    = os.Getenv("API_ENV")
	APP_HOST   = os.Getenv("APP_HOST")
	JWT_SECRET = os.Getenv("JWT_SECRET")

	UPLOAD_DIR            = getEnvOr("UPLOAD_DIR", "uploads")
	S3_ATTACHMENTS_BUCKET = os.Getenv("S3_ATTACHMENTS_BUCKET")
	BUG_EVENTS_TOPIC_ARN  = os.Getenv("BUG_EVENTS_TOPIC_ARN")
	EMAIL_QUEUE           = os.Getenv("EMAIL_QUEUE")
	MAIL_DRIVER           = getEnvOr("MAIL_DRIVER", "smtp")
	MAIL_FROM             = getEnvOr("MAIL_FROM", "no-reply@opsdesk.local")
	KAFKA_BROKER          = os.Getenv("KAFKA_BROKER")
	AUDIT_TOPIC           = getEnvOr("AUDIT_TOPIC", "opsdesk-audit")
)

const (
	TIME_PARSE_FORMAT = "2006-01-02 15:04:05 -07:00"
	DATE_FORMAT       = "2006-01-02"

	MAX_UPLOAD_SIZE int64 = 10 << 20
	DEFAULT_LIMIT         = 20
	MAX_LIMIT             = 100

	TOKEN_TTL = 12 * time.Hour
	CACHE_TTL = 30 * time.Second
)

// const dsn = "host=localhost user=postgres password=password dbname=opsdesk port=5432 sslmode=disable TimeZone=Asia/Manila"

func GetDSN() string {
	if GetDriver() == "sqlite" {
		return getEnvOr("DATABASE_PATH", "opsdesk.db")
	}
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// GetDriver returns "postgres" unless DB_DRIVER selects sqlite.
func GetDriver() string {
	return getEnvOr("DB_DRIVER", "postgres")
}

func GetJWTKey() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

func IsMaintenance() bool {
	mm := os.Getenv("MAINTENANCE_MODE")
	if mm == "" {
		return false
	}
	on, err := strconv.ParseBool(mm)
	return err != nil || on
}

func GetPort() string {
	return getEnvOr("PORT", "8080")
}

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

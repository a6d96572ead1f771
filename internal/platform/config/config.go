package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SyncQueueName      string
	SyncJobTimeout     time.Duration
	CodeforcesBaseURL  string
	CodeforcesTimeout  time.Duration
	SubmissionPageSize int

	InactivityThresholdDays int
	ReminderCooldownDays    int
	ReminderSendDelay       time.Duration
	ReminderCronSpec        string
	EmailSendTimeout        time.Duration
	ReminderBatchTimeout    time.Duration

	EmailBackend   string // "sendgrid" or "console"
	SendgridAPIKey string
	EmailFromName  string
	EmailFromAddr  string
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:    getEnv("API_PORT", "8080"),
		JWTKey:     []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:     time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "cptracker_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		SyncQueueName:      getEnv("SYNC_QUEUE_NAME", "student_sync_queue"),
		SyncJobTimeout:     time.Duration(getEnvAsInt("SYNC_JOB_TIMEOUT_SECONDS", 120)) * time.Second,
		CodeforcesBaseURL:  getEnv("CODEFORCES_BASE_URL", "https://codeforces.com/api"),
		CodeforcesTimeout:  time.Duration(getEnvAsInt("CODEFORCES_TIMEOUT_SECONDS", 10)) * time.Second,
		SubmissionPageSize: getEnvAsInt("SUBMISSION_PAGE_SIZE", 10000),

		InactivityThresholdDays: getEnvAsInt("INACTIVITY_THRESHOLD_DAYS", 7),
		ReminderCooldownDays:    getEnvAsInt("REMINDER_COOLDOWN_DAYS", 7),
		ReminderSendDelay:       time.Duration(getEnvAsInt("REMINDER_SEND_DELAY_MS", 1000)) * time.Millisecond,
		ReminderCronSpec:        getEnv("REMINDER_CRON_SPEC", "0 2 * * *"),
		EmailSendTimeout:        time.Duration(getEnvAsInt("EMAIL_SEND_TIMEOUT_SECONDS", 30)) * time.Second,
		ReminderBatchTimeout:    time.Duration(getEnvAsInt("REMINDER_BATCH_TIMEOUT_MINUTES", 60)) * time.Minute,

		EmailBackend:   getEnv("EMAIL_BACKEND", "console"),
		SendgridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "TLE CodePlus"),
		EmailFromAddr:  getEnv("EMAIL_FROM_ADDR", "noreply@tlecodeplus.example"),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

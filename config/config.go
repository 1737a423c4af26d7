package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB       int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAIContextDB   int    `mapstructure:"REDIS_AI_CONTEXT_DB"`
	RedisBookingLockDB int    `mapstructure:"REDIS_BOOKING_LOCK_DB"`
	RedisTaskQueueDB   int    `mapstructure:"REDIS_TASK_QUEUE_DB"`

	// Google integrations.
	GoogleAPIKey          string `mapstructure:"GOOGLE_API_KEY"`
	GeminiAPIKey          string `mapstructure:"GEMINI_API_KEY"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	GoogleCredentialsFile string `mapstructure:"GOOGLE_CREDENTIALS_FILE"`
	FirebaseCredFile      string `mapstructure:"FIREBASE_CRED_FILE"`

	// Twilio WhatsApp gateway.
	TwilioAccountSID   string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `mapstructure:"TWILIO_WHATSAPP_FROM"`

	// Booking engine thresholds.
	Timezone               string  `mapstructure:"TIMEZONE"`
	CountryCallingPrefix   string  `mapstructure:"COUNTRY_CALLING_PREFIX"`
	MaxDriverDistanceKm    float64 `mapstructure:"MAX_DRIVER_DISTANCE_KM"`
	MaxDriverDurationMin   float64 `mapstructure:"MAX_DRIVER_DURATION_MIN"`
	ConflictSearchPadHours int     `mapstructure:"CONFLICT_SEARCH_PAD_HOURS"`
	FutureBookingLeadHours float64 `mapstructure:"FUTURE_BOOKING_LEAD_HOURS"`
	LocationStalenessMin   float64 `mapstructure:"LOCATION_STALENESS_MIN"`
	SameAreaThresholdMin   float64 `mapstructure:"SAME_AREA_THRESHOLD_MIN"`
	MinimumGapHours        float64 `mapstructure:"MINIMUM_GAP_HOURS"`
	ConversationTTLMinutes int     `mapstructure:"CONVERSATION_TTL_MINUTES"`
}

var AppConfig Config

// LoadConfig initializes Viper to load config values from env, file, or defaults.
func LoadConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AI_CONTEXT_DB", 1)
	viper.SetDefault("REDIS_BOOKING_LOCK_DB", 2)
	viper.SetDefault("REDIS_TASK_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")

	viper.SetDefault("TIMEZONE", "Asia/Karachi")
	viper.SetDefault("COUNTRY_CALLING_PREFIX", "+92")
	viper.SetDefault("MAX_DRIVER_DISTANCE_KM", 20)
	viper.SetDefault("MAX_DRIVER_DURATION_MIN", 30)
	viper.SetDefault("CONFLICT_SEARCH_PAD_HOURS", 2)
	viper.SetDefault("FUTURE_BOOKING_LEAD_HOURS", 4)
	viper.SetDefault("LOCATION_STALENESS_MIN", 120)
	viper.SetDefault("SAME_AREA_THRESHOLD_MIN", 30)
	viper.SetDefault("MINIMUM_GAP_HOURS", 2)
	viper.SetDefault("CONVERSATION_TTL_MINUTES", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location resolves the configured display timezone, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

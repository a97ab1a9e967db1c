package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AgentConfig captures all tunable parameters for the agent binaries.
// Values are primarily loaded from environment variables with sane defaults
// so the binaries can run locally without excessive setup.
type AgentConfig struct {
	APIBaseURL string
	WSURL      string

	// Credentials used for an initial login when no session is stored.
	Email    string
	Password string

	CredentialsFile string
	RedisAddr       string
	RedisPassword   string
	SessionKey      string

	KafkaBrokers []string
	KafkaTopic   string

	VehicleType string
	Region      string

	// Accept policy caps. Zero disables the cap.
	MaxPickupKm float64
	MinFare     float64

	// Simulated GPS start position and speed.
	StartLat float64
	StartLng float64
	SpeedMps float64

	SearchPollInterval   time.Duration
	TrackPollInterval    time.Duration
	LocationPushInterval time.Duration
	OfferCountdownSec    int
	RouteThresholdMeters float64
	ReconnectBackoff     time.Duration
	HTTPTimeout          time.Duration
	PricingTimeout       time.Duration

	MetricsAddr string
	LogLevel    string
}

func defaultAgentConfig() AgentConfig {
	return AgentConfig{
		APIBaseURL:           "http://localhost:8080",
		WSURL:                "ws://localhost:8080/ws",
		CredentialsFile:      ".ride-agent-session.json",
		SessionKey:           "ride-agent:session",
		KafkaTopic:           "trip-events",
		VehicleType:          "CAR",
		Region:               "HCM",
		StartLat:             10.7769,
		StartLng:             106.7009,
		SpeedMps:             10,
		SearchPollInterval:   2 * time.Second,
		TrackPollInterval:    15 * time.Second,
		LocationPushInterval: 3 * time.Second,
		OfferCountdownSec:    30,
		RouteThresholdMeters: 10,
		ReconnectBackoff:     3 * time.Second,
		HTTPTimeout:          10 * time.Second,
		PricingTimeout:       10 * time.Second,
		MetricsAddr:          ":2112",
		LogLevel:             "info",
	}
}

func LoadAgentConfig() (AgentConfig, error) {
	cfg := defaultAgentConfig()
	var errs []error

	setStringFromEnv(&cfg.APIBaseURL, "API_BASE_URL")
	setStringFromEnv(&cfg.WSURL, "WS_URL")

	cfg.Email = strings.TrimSpace(os.Getenv("RIDE_EMAIL"))
	cfg.Password = os.Getenv("RIDE_PASSWORD")

	setStringFromEnv(&cfg.CredentialsFile, "CREDENTIALS_FILE")
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.SessionKey, "SESSION_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	setStringFromEnv(&cfg.VehicleType, "VEHICLE_TYPE")
	setStringFromEnv(&cfg.Region, "REGION")
	setFloatFromEnv(&cfg.MaxPickupKm, "MAX_PICKUP_KM", &errs)
	setFloatFromEnv(&cfg.MinFare, "MIN_FARE", &errs)
	setFloatFromEnv(&cfg.StartLat, "START_LAT", &errs)
	setFloatFromEnv(&cfg.StartLng, "START_LNG", &errs)
	setFloatFromEnv(&cfg.SpeedMps, "SPEED_MPS", &errs)

	setDurationFromEnv(&cfg.SearchPollInterval, "SEARCH_POLL_INTERVAL", &errs)
	setDurationFromEnv(&cfg.TrackPollInterval, "TRACK_POLL_INTERVAL", &errs)
	setDurationFromEnv(&cfg.LocationPushInterval, "LOCATION_PUSH_INTERVAL", &errs)
	setIntFromEnv(&cfg.OfferCountdownSec, "OFFER_COUNTDOWN_SECONDS", &errs)
	setFloatFromEnv(&cfg.RouteThresholdMeters, "ROUTE_THRESHOLD_METERS", &errs)
	setDurationFromEnv(&cfg.ReconnectBackoff, "WS_RECONNECT_BACKOFF", &errs)
	setDurationFromEnv(&cfg.HTTPTimeout, "HTTP_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.PricingTimeout, "PRICING_TIMEOUT", &errs)

	setStringFromEnv(&cfg.MetricsAddr, "METRICS_ADDR")
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.OfferCountdownSec <= 0 {
		errs = append(errs, fmt.Errorf("OFFER_COUNTDOWN_SECONDS must be > 0"))
	}
	if cfg.SearchPollInterval <= 0 || cfg.TrackPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll intervals must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

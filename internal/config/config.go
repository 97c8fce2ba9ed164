package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP
	HTTPPort string

	// Redis (geo index + telemetry store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres (auth collaborator user store)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	// Auth
	AuthRequired        bool
	AuthJWTSecret       string
	AuthStaticSubjects  []string
	AuthCacheTTLSeconds int

	// Neighbor selection
	NearbyRadiusMeters         float64
	BlindSpotRadiusBoostMeters float64
	AngularVelHighDegS         float64
	MaxNeighbors               int
	StaleMS                    int64

	// Predictor thresholds
	ProjectionTimeSeconds      float64
	ThreatDistanceMeters       float64
	MinMovingSpeedMS           float64
	UncertaintyInflationMeters float64
	TTCMaxSeconds              float64
	ClosingSpeedStrongMS       float64
	LookaheadS                 int
	PredictStep                int
	CollisionRadiusM           float64
	RearEndDistanceM           float64
	SuddenDecelMS2             float64
	WrongDirDiffDeg            float64
	OvertakeSideMaxM           float64

	// Telemetry TTLs
	TelemetryTTLFastS int
	TelemetryTTLSlowS int
	FastTTLSpeedMS    float64

	// Background maintenance
	GeoJanitorIntervalMS int

	// Websocket
	WSSendBuffer int
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "v2v_user"),
		DBPassword: getEnv("DB_PASSWORD", "v2v_password"),
		DBName:     getEnv("DB_NAME", "v2v_radar"),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),

		AuthRequired:        getEnvBool("AUTH_REQUIRED", false),
		AuthJWTSecret:       getEnv("AUTH_JWT_SECRET", ""),
		AuthStaticSubjects:  splitNonEmpty(getEnv("AUTH_STATIC_SUBJECTS", "")),
		AuthCacheTTLSeconds: getEnvInt("AUTH_CACHE_TTL_SECONDS", 300),

		NearbyRadiusMeters:         getEnvFloat("NEARBY_RADIUS_METERS", 75),
		BlindSpotRadiusBoostMeters: getEnvFloat("BLIND_SPOT_RADIUS_BOOST_METERS", 8),
		AngularVelHighDegS:         getEnvFloat("ANGULAR_VEL_HIGH_DEG_S", 45),
		MaxNeighbors:               getEnvInt("MAX_NEIGHBORS", 50),
		StaleMS:                    int64(getEnvInt("STALE_MS", 4000)),

		ProjectionTimeSeconds:      getEnvFloat("PROJECTION_TIME_SECONDS", 3),
		ThreatDistanceMeters:       getEnvFloat("THREAT_DISTANCE_METERS", 15),
		MinMovingSpeedMS:           getEnvFloat("MIN_MOVING_SPEED_MS", 0.1),
		UncertaintyInflationMeters: getEnvFloat("UNCERTAINTY_INFLATION_METERS", 5),
		TTCMaxSeconds:              getEnvFloat("TTC_MAX_SECONDS", 3),
		ClosingSpeedStrongMS:       getEnvFloat("CLOSING_SPEED_STRONG_MS", 10),
		LookaheadS:                 getEnvInt("LOOKAHEAD_S", 5),
		PredictStep:                getEnvInt("PREDICT_STEP", 1),
		CollisionRadiusM:           getEnvFloat("COLLISION_RADIUS_M", 4),
		RearEndDistanceM:           getEnvFloat("REAR_END_DISTANCE_M", 10),
		SuddenDecelMS2:             getEnvFloat("SUDDEN_DECEL_MS2", 2.0),
		WrongDirDiffDeg:            getEnvFloat("WRONG_DIR_DIFF_DEG", 150),
		OvertakeSideMaxM:           getEnvFloat("OVERTAKE_SIDE_MAX_M", 3.0),

		TelemetryTTLFastS: getEnvInt("TELEMETRY_TTL_FAST_S", 10),
		TelemetryTTLSlowS: getEnvInt("TELEMETRY_TTL_SLOW_S", 30),
		FastTTLSpeedMS:    getEnvFloat("FAST_TTL_SPEED_MS", 5),

		GeoJanitorIntervalMS: getEnvInt("GEO_JANITOR_INTERVAL_MS", 5000),

		WSSendBuffer: getEnvInt("WS_SEND_BUFFER", 64),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

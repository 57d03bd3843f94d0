package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database (optional; empty disables run records, presets and operators)
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsPath string

	// Redis (optional; empty disables cross-instance fan-out)
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Security
	JWTSecret       string
	TokenTTLMinutes int
	// OperatorToken lets the "local" operator authenticate when no
	// database is configured. Empty disables it.
	OperatorToken string

	// Stats worker
	StatsIntervalSecs int

	// Simulation
	Sim SimConfig
}

// SimConfig holds everything the engine needs to size and drive a world.
type SimConfig struct {
	WorldWidth  float64
	WorldHeight float64
	CellSize    float64
	Radius      float64
	Capacity    int

	Workers   int
	ChunkSize int

	DT                float64
	Gravity           float64
	Damping           float64
	TranslationForce  float64
	RotationForce     float64
	ForceRange        float64
	PointGravityScale float64
	FluidFriction     float64
	StaticFriction    bool

	GridClear       string
	GridProjected   bool
	CorrectVortex   bool
	GuardDegenerate bool

	BarrierTimeout time.Duration
	PausePoll      time.Duration
	QuickstepPoll  time.Duration
	FrameEvery     int
	StartPaused    bool

	Scene            string
	InitialParticles int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),

		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", false),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

		RedisURL: getEnv("REDIS_URL", ""),

		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret:       getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLMinutes: getEnvInt("TOKEN_TTL_MINUTES", 60),
		OperatorToken:   getEnv("OPERATOR_TOKEN", ""),

		StatsIntervalSecs: getEnvInt("STATS_INTERVAL_SECONDS", 5),

		Sim: LoadSim(),
	}
}

// LoadSim reads only the simulation settings.
func LoadSim() SimConfig {
	return SimConfig{
		WorldWidth:  getEnvFloat("SIM_WORLD_WIDTH", 1000),
		WorldHeight: getEnvFloat("SIM_WORLD_HEIGHT", 1000),
		CellSize:    getEnvFloat("SIM_CELL_SIZE", 4),
		Radius:      getEnvFloat("SIM_PARTICLE_RADIUS", 2),
		Capacity:    getEnvInt("SIM_CAPACITY", 20000),

		Workers:   getEnvInt("SIM_WORKERS", runtime.NumCPU()),
		ChunkSize: getEnvInt("SIM_CHUNK_SIZE", 256),

		DT:                getEnvFloat("SIM_DT", 0.001),
		Gravity:           getEnvFloat("SIM_GRAVITY", 1000),
		Damping:           getEnvFloat("SIM_DAMPING", 0.45),
		TranslationForce:  getEnvFloat("SIM_TRANSLATION_FORCE", 200000),
		RotationForce:     getEnvFloat("SIM_ROTATION_FORCE", 200000),
		ForceRange:        getEnvFloat("SIM_FORCE_RANGE", 200),
		PointGravityScale: getEnvFloat("SIM_POINT_GRAVITY_SCALE", 5000),
		FluidFriction:     getEnvFloat("SIM_FLUID_FRICTION", 0),
		StaticFriction:    getEnvBool("SIM_STATIC_FRICTION", false),

		GridClear:       getEnv("SIM_GRID_CLEAR", "touched"),
		GridProjected:   getEnvBool("SIM_GRID_PROJECTED", false),
		CorrectVortex:   getEnvBool("SIM_CORRECT_VORTEX", false),
		GuardDegenerate: getEnvBool("SIM_GUARD_DEGENERATE", false),

		BarrierTimeout: getEnvDuration("SIM_BARRIER_TIMEOUT", time.Second),
		PausePoll:      getEnvDuration("SIM_PAUSE_POLL", 10*time.Millisecond),
		QuickstepPoll:  getEnvDuration("SIM_QUICKSTEP_POLL", time.Millisecond),
		FrameEvery:     getEnvInt("SIM_FRAME_EVERY", 16),
		StartPaused:    getEnvBool("SIM_START_PAUSED", false),

		Scene:            getEnv("SIM_SCENE", "default"),
		InitialParticles: getEnvInt("SIM_INITIAL_PARTICLES", 2000),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("250ms") or a bare number of
// milliseconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

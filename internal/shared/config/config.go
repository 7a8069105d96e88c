package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"corridors-server/internal/shared/utils"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	RateLimit RateLimitConfig
	Galaxy    GalaxyConfig
	Guilds    GuildConfig
	Admin     AdminConfig
}

type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Driver          string // "sqlite" or "postgres"
	Path            string // sqlite file path
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

type RedisConfig struct {
	Enabled       bool
	URL           string
	Host          string
	Port          string
	Password      string
	DB            int
	ChannelPrefix string
}

type LoggingConfig struct {
	Level      string
	JSONFormat bool
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstSize         int
}

type GalaxyConfig struct {
	DefaultName      string
	DefaultLocations int
	DefaultStartDate string // DD-MM-YYYY
	DefaultTimeScale float64
	TuningPath       string // worldgen yaml, optional
	MaxRouteJumps    int
}

type GuildConfig struct {
	GuildIDs               []int64
	UpdatesChannelID       int64
	StatusChannelID        int64
	AnnouncementsChannelID int64
}

type AdminConfig struct {
	Token string
}

var GlobalConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	config, err := load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	GlobalConfig = config
	return nil
}

func load() (*Config, error) {
	config := &Config{
		Server:    loadServerConfig(),
		Database:  loadDatabaseConfig(),
		Redis:     loadRedisConfig(),
		Logging:   loadLoggingConfig(),
		RateLimit: loadRateLimitConfig(),
		Galaxy:    loadGalaxyConfig(),
		Guilds:    loadGuildConfig(),
		Admin:     loadAdminConfig(),
	}

	return config, nil
}

func loadServerConfig() ServerConfig {
	readTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_READ_TIMEOUT_SECONDS", "15"))
	writeTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_WRITE_TIMEOUT_SECONDS", "15"))
	idleTimeout, _ := strconv.Atoi(utils.GetEnv("SERVER_IDLE_TIMEOUT_SECONDS", "60"))

	return ServerConfig{
		Port:         utils.GetEnv("SERVER_PORT", "8080"),
		Environment:  utils.GetEnv("ENVIRONMENT", "development"),
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
		IdleTimeout:  time.Duration(idleTimeout) * time.Second,
	}
}

func loadDatabaseConfig() DatabaseConfig {
	maxOpenConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_OPEN_CONNS", "25"))
	maxIdleConns, _ := strconv.Atoi(utils.GetEnv("DB_MAX_IDLE_CONNS", "5"))
	connMaxLifetime, _ := strconv.Atoi(utils.GetEnv("DB_CONN_MAX_LIFETIME_MINUTES", "5"))

	return DatabaseConfig{
		Driver:          utils.GetEnv("DB_DRIVER", "sqlite"),
		Path:            utils.GetEnv("DB_PATH", "data/galaxy.db"),
		Host:            utils.GetEnv("DB_HOST", "localhost"),
		Port:            utils.GetEnv("DB_PORT", "5432"),
		User:            utils.GetEnv("DB_USER", "postgres"),
		Password:        utils.GetEnv("DB_PASSWORD", "postgres"),
		Name:            utils.GetEnv("DB_NAME", "galaxy"),
		SSLMode:         utils.GetEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: time.Duration(connMaxLifetime) * time.Minute,
		MigrationsPath:  utils.GetEnv("DB_MIGRATIONS_PATH", "migrations"),
	}
}

func loadRedisConfig() RedisConfig {
	enabled := utils.GetEnv("REDIS_ENABLED", "false") == "true"
	db, _ := strconv.Atoi(utils.GetEnv("REDIS_DB", "0"))

	return RedisConfig{
		Enabled:       enabled,
		URL:           utils.GetEnv("REDIS_URL", ""),
		Host:          utils.GetEnv("REDIS_HOST", "localhost"),
		Port:          utils.GetEnv("REDIS_PORT", "6379"),
		Password:      utils.GetEnv("REDIS_PASSWORD", ""),
		DB:            db,
		ChannelPrefix: utils.GetEnv("REDIS_CHANNEL_PREFIX", "chat"),
	}
}

func loadLoggingConfig() LoggingConfig {
	environment := utils.GetEnv("ENVIRONMENT", "development")
	jsonFormat := environment == "production"

	return LoggingConfig{
		Level:      utils.GetEnv("LOG_LEVEL", "debug"),
		JSONFormat: jsonFormat,
	}
}

func loadRateLimitConfig() RateLimitConfig {
	enabled := utils.GetEnv("RATE_LIMIT_ENABLED", "true") == "true"
	requestsPerSecond, _ := strconv.ParseFloat(utils.GetEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"), 64)
	burstSize, _ := strconv.Atoi(utils.GetEnv("RATE_LIMIT_BURST_SIZE", "20"))

	return RateLimitConfig{
		Enabled:           enabled,
		RequestsPerSecond: requestsPerSecond,
		BurstSize:         burstSize,
	}
}

func loadGalaxyConfig() GalaxyConfig {
	locations, _ := strconv.Atoi(utils.GetEnv("GALAXY_DEFAULT_LOCATIONS", "75"))
	scale, _ := strconv.ParseFloat(utils.GetEnv("GALAXY_TIME_SCALE", "4.0"), 64)
	maxJumps, _ := strconv.Atoi(utils.GetEnv("GALAXY_MAX_ROUTE_JUMPS", "3"))

	return GalaxyConfig{
		DefaultName:      utils.GetEnv("GALAXY_DEFAULT_NAME", "Human Space"),
		DefaultLocations: locations,
		DefaultStartDate: utils.GetEnv("GALAXY_DEFAULT_START_DATE", "01-01-2751"),
		DefaultTimeScale: scale,
		TuningPath:       utils.GetEnv("GALAXY_TUNING_PATH", "config/worldgen.yaml"),
		MaxRouteJumps:    maxJumps,
	}
}

func loadGuildConfig() GuildConfig {
	var guildIDs []int64
	for _, raw := range strings.Split(utils.GetEnv("GUILD_IDS", ""), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			guildIDs = append(guildIDs, id)
		}
	}

	updates, _ := strconv.ParseInt(utils.GetEnv("GUILD_UPDATES_CHANNEL_ID", "0"), 10, 64)
	status, _ := strconv.ParseInt(utils.GetEnv("GUILD_STATUS_CHANNEL_ID", "0"), 10, 64)
	announcements, _ := strconv.ParseInt(utils.GetEnv("GUILD_ANNOUNCEMENTS_CHANNEL_ID", "0"), 10, 64)

	return GuildConfig{
		GuildIDs:               guildIDs,
		UpdatesChannelID:       updates,
		StatusChannelID:        status,
		AnnouncementsChannelID: announcements,
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Token: utils.GetEnv("ADMIN_TOKEN", ""),
	}
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required for the postgres driver")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected sqlite or postgres)", c.Database.Driver)
	}

	if c.Galaxy.DefaultTimeScale <= 0 {
		return fmt.Errorf("GALAXY_TIME_SCALE must be positive")
	}

	return nil
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

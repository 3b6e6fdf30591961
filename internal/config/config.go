package config

type Config struct {
	Server    ServerConfig    `json:"server" envPrefix:"SERVER_" validate:"required"`
	Database  DatabaseConfig  `json:"database" envPrefix:"DB_" validate:"required"`
	Redis     RedisConfig     `json:"redis" envPrefix:"REDIS_" validate:"required"`
	Cache     CacheConfig     `json:"cache" envPrefix:"CACHE_" validate:"required"`
	OTP       OTPConfig       `json:"otp" envPrefix:"OTP_" validate:"required"`
	RateLimit RateLimitConfig `json:"rate_limit" envPrefix:"RATE_LIMIT_" validate:"required"`
}

type DatabaseConfig struct {
	Host     string `json:"host" env:"HOST" validate:"required,hostname|ip"`
	Port     string `json:"port" env:"PORT" validate:"required,numeric"`
	User     string `json:"user" env:"USER" validate:"required"`
	Password string `json:"password" env:"PASSWORD" validate:"required"`
	DBName   string `json:"db_name" env:"NAME" validate:"required"`
	SSLMode  string `json:"ssl_mode" env:"SSL_MODE" validate:"required,oneof=disable require verify-ca verify-full"`
}

type ServerConfig struct {
	Port         string   `json:"port" env:"PORT" validate:"required,numeric"`
	Host         string   `json:"host" env:"HOST" validate:"required,hostname|ip"`
	ReadTimeout  Duration `json:"read_timeout" env:"READ_TIMEOUT" validate:"required,duration_gt0"`
	WriteTimeout Duration `json:"write_timeout" env:"WRITE_TIMEOUT" validate:"required,duration_gt0"`
}

type RedisConfig struct {
	// URL is a redis connection string, e.g. redis://localhost:6379/0.
	URL      string `json:"url" env:"URL" validate:"required,uri"`
	PoolSize int    `json:"pool_size" env:"POOL_SIZE" validate:"gte=0"`
}

type CacheConfig struct {
	// DefaultTTL applies to memoized values whose call site doesn't pick its own TTL.
	DefaultTTL Duration `json:"default_ttl" env:"DEFAULT_TTL" validate:"required,duration_gt0"`
}

type OTPConfig struct {
	ExpiryMinutes int      `json:"expiry_minutes" env:"EXPIRY_MINUTES" validate:"required,gt=0"`
	MaxAttempts   int      `json:"max_attempts" env:"MAX_ATTEMPTS" validate:"required,gt=0"`
	Lockout       Duration `json:"lockout" env:"LOCKOUT" validate:"required,duration_gt0"`
}

// RateRule is one fixed-window budget: Calls requests per Window.
type RateRule struct {
	Calls  int      `json:"calls" validate:"required,gt=0"`
	Window Duration `json:"window" validate:"required,duration_gt0"`
}

type RateLimitConfig struct {
	Default RateRule `json:"default" validate:"required"`
	// Rules maps a resource path to its own budget; unmatched paths use Default.
	// Populated from the JSON config file only, there is no sane env encoding for it.
	Rules map[string]RateRule `json:"rules" validate:"omitempty,dive"`
}

// Rule returns the budget for path, falling back to the default rule.
func (c RateLimitConfig) Rule(path string) RateRule {
	if r, ok := c.Rules[path]; ok {
		return r
	}
	return c.Default
}

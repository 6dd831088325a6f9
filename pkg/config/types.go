package config

type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Database settings
	Database DatabaseConfig `json:"database"`

	// Security settings
	Security SecurityConfig `json:"security"`

	// Logging settings
	Logging LoggingConfig `json:"logging"`

	// Client polling intervals
	Polling PollingConfig `json:"polling"`

	// Metrics settings
	Metrics MetricsConfig `json:"metrics"`
}

type ServerConfig struct {
	Host           string   `json:"host" default:"localhost"`
	Port           int      `json:"port" default:"8080"`
	ReadTimeout    int      `json:"read_timeout" default:"30"`  // seconds
	WriteTimeout   int      `json:"write_timeout" default:"30"` // seconds
	IdleTimeout    int      `json:"idle_timeout" default:"120"` // seconds
	GracefulStop   int      `json:"graceful_stop" default:"30"` // seconds
	AllowedOrigins []string `json:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver   string `json:"driver" default:"sqlite"` // sqlite, postgres
	Host     string `json:"host" default:"localhost"`
	Port     int    `json:"port" default:"5432"`
	Database string `json:"database" default:"travelbuddy.db"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode" default:"disable"`
	LogLevel string `json:"log_level" default:"warn"` // silent, error, warn, info
	SeedDemo bool   `json:"seed_demo" default:"false"`

	// Connection pool settings
	MaxOpenConns    int `json:"max_open_conns" default:"25"`
	MaxIdleConns    int `json:"max_idle_conns" default:"5"`
	ConnMaxLifetime int `json:"conn_max_lifetime" default:"300"` // seconds
}

type SecurityConfig struct {
	JWTSecret           string `json:"jwt_secret"`
	JWTExpirationHours  int    `json:"jwt_expiration_hours" default:"24"`
	SessionCookieName   string `json:"session_cookie_name" default:"travelbuddy_session"`
	SessionCookieSecure bool   `json:"session_cookie_secure" default:"true"`
	BcryptCost          int    `json:"bcrypt_cost" default:"10"`

	// Rate limiting
	RateLimitEnabled   bool   `json:"rate_limit_enabled" default:"true"`
	RateLimitDriver    string `json:"rate_limit_driver" default:"memory"` // memory, redis
	RateLimitPerMinute int    `json:"rate_limit_per_minute" default:"120"`
	RateLimitBurstSize int    `json:"rate_limit_burst_size" default:"20"`
	RedisURL           string `json:"redis_url"`
}

type LoggingConfig struct {
	Level      string `json:"level" default:"info"`    // debug, info, warn, error
	Format     string `json:"format" default:"json"`   // json, text
	Output     string `json:"output" default:"stdout"` // stdout, file
	FilePath   string `json:"file_path" default:"logs/travelbuddy.log"`
	MaxSize    int    `json:"max_size" default:"100"` // MB
	MaxBackups int    `json:"max_backups" default:"3"`
	MaxAge     int    `json:"max_age" default:"28"` // days
	Compress   bool   `json:"compress" default:"true"`
}

// PollingConfig holds the refresh intervals handed to clients. The server
// never pushes; clients re-fetch on these timers.
type PollingConfig struct {
	ConversationSeconds int `json:"conversation_seconds" default:"5"`
	BadgeSeconds        int `json:"badge_seconds" default:"60"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" default:"true"`
	Path    string `json:"path" default:"/metrics"`
}

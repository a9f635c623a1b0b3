package config

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"benerin"`
	Password string `env:"PASSWORD" envDefault:"benerin"`
	Name     string `env:"NAME"     envDefault:"benerin"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// RedisConfig contains Redis configuration for sessions, guest tracking, and
// pending return URLs.
type RedisConfig struct {
	Addr     string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD" envDefault:""`
	DB       int    `env:"DB"       envDefault:"0"`

	// Enabled switches the session, guest, and return-URL stores from
	// in-memory to Redis.
	Enabled bool `env:"ENABLED" envDefault:"false"`
}

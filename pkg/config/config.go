package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Pricing      PricingConfig
	Checkout     CheckoutConfig
	Members      MembersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"VENUEPOS_APP_ENV" required:"true"`
	Port         string   `envconfig:"VENUEPOS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"VENUEPOS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"VENUEPOS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"VENUEPOS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENUEPOS_DB_DSN"`
	Driver string `envconfig:"VENUEPOS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENUEPOS_DB_HOST"`
	LegacyPort     int    `envconfig:"VENUEPOS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENUEPOS_DB_USER"`
	LegacyPassword string `envconfig:"VENUEPOS_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENUEPOS_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENUEPOS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENUEPOS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENUEPOS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENUEPOS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENUEPOS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VENUEPOS_REDIS_URL"`
	Address      string        `envconfig:"VENUEPOS_REDIS_ADDR"`
	Password     string        `envconfig:"VENUEPOS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENUEPOS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENUEPOS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENUEPOS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENUEPOS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENUEPOS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENUEPOS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type PricingConfig struct {
	TaxRate           decimal.Decimal `envconfig:"VENUEPOS_TAX_RATE" default:"0.10"`
	LowStockThreshold int             `envconfig:"VENUEPOS_LOW_STOCK_THRESHOLD" default:"10"`
}

func (p PricingConfig) validate() error {
	if p.TaxRate.IsNegative() {
		return fmt.Errorf("%s must be non-negative", EnvTaxRate)
	}
	if p.TaxRate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be expressed as a fraction (0.10 for 10%%)", EnvTaxRate)
	}
	if p.LowStockThreshold < 0 {
		return fmt.Errorf("%s must be non-negative", EnvLowStockThreshold)
	}
	return nil
}

type CheckoutConfig struct {
	Timeout          time.Duration `envconfig:"VENUEPOS_CHECKOUT_TIMEOUT" default:"15s"`
	GuardTTL         time.Duration `envconfig:"VENUEPOS_CHECKOUT_GUARD_TTL" default:"30s"`
	SaleNumberPrefix string        `envconfig:"VENUEPOS_SALE_NUMBER_PREFIX" default:"TXN"`
	Location         string        `envconfig:"VENUEPOS_BUSINESS_TIMEZONE" default:"UTC"`
}

// BusinessLocation resolves the timezone used to stamp business dates.
func (c CheckoutConfig) BusinessLocation() (*time.Location, error) {
	if strings.TrimSpace(c.Location) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", EnvBusinessTimezone, err)
	}
	return loc, nil
}

type MembersConfig struct {
	SearchLimit    int `envconfig:"VENUEPOS_MEMBER_SEARCH_LIMIT" default:"5"`
	SearchMinChars int `envconfig:"VENUEPOS_MEMBER_SEARCH_MIN_CHARS" default:"2"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VENUEPOS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VENUEPOS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

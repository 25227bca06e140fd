package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type AmenityConfig struct {
	Categories []string `mapstructure:"categories"`
	ListingIDs []string `mapstructure:"listingIDs"`
}

type HomeCityConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

type SearchConfig struct {
	DefaultRadiusKm    float64                  `mapstructure:"defaultRadiusKm"`
	DefaultMaxResults  int                      `mapstructure:"defaultMaxResults"`
	MaxResultsCap      int                      `mapstructure:"maxResultsCap"`
	AdEvery            int                      `mapstructure:"adEvery"`
	SuggestionCount    int                      `mapstructure:"suggestionCount"`
	FallbackDistanceKm float64                  `mapstructure:"fallbackDistanceKm"`
	HomeCity           HomeCityConfig           `mapstructure:"homeCity"`
	LocateTimeout      time.Duration            `mapstructure:"locateTimeout"`
	CatalogueTTL       time.Duration            `mapstructure:"catalogueTTL"`
	Amenities          map[string]AmenityConfig `mapstructure:"amenities"`
	Breaker            struct {
		MaxFailures uint32        `mapstructure:"maxFailures"`
		OpenTimeout time.Duration `mapstructure:"openTimeout"`
	} `mapstructure:"breaker"`
	RateLimit struct {
		Requests int           `mapstructure:"requests"`
		Window   time.Duration `mapstructure:"window"`
	} `mapstructure:"rateLimit"`
}

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Address  string `mapstructure:"address"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Search SearchConfig `mapstructure:"search"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// REPOSITORIES_POSTGRES_HOST overrides repositories.postgres.host and so on.
	// The binds below add shorter aliases for the connection settings.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range map[string]string{
		"repositories.postgres.host":     "POSTGRES_HOST",
		"repositories.postgres.password": "POSTGRES_PASSWORD",
		"repositories.redis.address":     "REDIS_ADDRESS",
	} {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

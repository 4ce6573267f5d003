package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultJWTSecret is the placeholder secret used when JWT_SECRET is unset.
// Serving with it is only allowed in dev mode.
const DefaultJWTSecret = "change-me"

var ErrDefaultSecret = errors.New("JWT_SECRET is unset; set it or run with DEV_MODE=true / --dev")

type Config struct {
	Port           string        `envconfig:"PORT" default:"8080"`
	DBDriver       string        `envconfig:"DB_DRIVER" default:"sqlite"`
	DBDSN          string        `envconfig:"DB_DSN" default:"storekeep.db"` // sqlite file in project root
	MediaDir       string        `envconfig:"MEDIA_DIR" default:"./uploads"`
	ImagesEnabled  bool          `envconfig:"IMAGES_ENABLED" default:"true"`
	MaxUploadBytes int           `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
	LogFile        string        `envconfig:"LOG_FILE"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret      string        `envconfig:"JWT_SECRET" default:"change-me"`
	TokenTTL       time.Duration `envconfig:"TOKEN_TTL" default:"1h"`
	AdminEmail     string        `envconfig:"ADMIN_EMAIL" default:"admin@storekeep.test"`
	AdminPassword  string        `envconfig:"ADMIN_PASSWORD"`
	DevMode        bool          `envconfig:"DEV_MODE" default:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err == nil {
		log.Info("[config] loaded .env")
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "load config")
	}
	if cfg.JWTSecret == DefaultJWTSecret {
		log.Warn("[config] JWT_SECRET not set, using the development default")
	}
	log.WithFields(log.Fields{
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
		"media_dir": cfg.MediaDir,
		"images":    cfg.ImagesEnabled,
		"log_file":  cfg.LogFile,
	}).Info("[config] loaded")
	return cfg, nil
}

// Validate checks settings that must hold before the API serves traffic.
func (c Config) Validate() error {
	if c.JWTSecret == DefaultJWTSecret && !c.DevMode {
		return ErrDefaultSecret
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AccountStoreMySQL = "mysql"
	AccountStoreMongo = "mongo"

	ImageStoreGridFS = "gridfs"
	ImageStoreMemory = "memory"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr string `envconfig:"GRPC_ADDR" default:":50051"`

	MySQLDSN  string `envconfig:"MYSQL_DSN"  default:"root:root@tcp(localhost:3306)/storefront?parseTime=true"`
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	AccountStore  string `envconfig:"ACCOUNT_STORE"  default:"mysql"`
	MongoURI      string `envconfig:"MONGO_URI"      default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"storefront"`

	SessionTTL   time.Duration `envconfig:"SESSION_TTL"    default:"720h"`
	LocalCartTTL time.Duration `envconfig:"LOCAL_CART_TTL" default:"168h"`
	// CartIdleTimeout bounds how long an unused session cart stays in memory
	CartIdleTimeout time.Duration `envconfig:"CART_IDLE_TIMEOUT" default:"30m"`

	BcryptCost int    `envconfig:"BCRYPT_COST" default:"12"`
	LogLevel   string `envconfig:"LOG_LEVEL"   default:"info"`

	ImageStore    string `envconfig:"IMAGE_STORE"     default:"gridfs"`
	MaxImageBytes int64  `envconfig:"MAX_IMAGE_BYTES" default:"5242880"`

	// SMTPAddr empty means contact emails are only logged
	SMTPAddr     string `envconfig:"SMTP_ADDR"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM"   default:"Storefront <no-reply@storefront.local>"`
	AdminEmail   string `envconfig:"ADMIN_EMAIL"`
	StoreName    string `envconfig:"STORE_NAME"  default:"Storefront"`

	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" default:"http://localhost:8080/api/auth/google/callback"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.AccountStore {
	case AccountStoreMySQL, AccountStoreMongo:
	default:
		return fmt.Errorf("ACCOUNT_STORE must be %q or %q, got %q", AccountStoreMySQL, AccountStoreMongo, c.AccountStore)
	}
	switch c.ImageStore {
	case ImageStoreGridFS, ImageStoreMemory:
	default:
		return fmt.Errorf("IMAGE_STORE must be %q or %q, got %q", ImageStoreGridFS, ImageStoreMemory, c.ImageStore)
	}
	if c.MaxImageBytes <= 0 {
		return errors.New("MAX_IMAGE_BYTES must be positive")
	}
	if c.SessionTTL <= 0 || c.LocalCartTTL <= 0 {
		return errors.New("SESSION_TTL and LOCAL_CART_TTL must be positive")
	}
	return nil
}

func (c *Config) SMTPEnabled() bool {
	return c.SMTPAddr != ""
}

func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"

	PhotosLocal      = "local"
	PhotosCloudinary = "cloudinary"
)

type CloudinaryConfig struct {
	CloudName string `yaml:"cloud_name"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Folder    string `yaml:"folder"`
}

type MailConfig struct {
	APIURL string `yaml:"api_url"`
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

type Config struct {
	HTTPAddr    string   `yaml:"http_addr"`
	GinMode     string   `yaml:"gin_mode"`
	LogLevel    string   `yaml:"log_level"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Timezone decides which calendar day counts as "today".
	Timezone string `yaml:"timezone"`

	StoreDriver string `yaml:"store_driver"`
	MongoURI    string `yaml:"mongo_uri"`
	DBName      string `yaml:"db_name"`
	SQLiteDSN   string `yaml:"sqlite_dsn"`

	PhotoStorage string           `yaml:"photo_storage"`
	UploadDir    string           `yaml:"upload_dir"`
	UploadURL    string           `yaml:"upload_url"`
	Cloudinary   CloudinaryConfig `yaml:"cloudinary"`

	// JWTSecret empty leaves the admin routes open.
	JWTSecret         string `yaml:"jwt_secret"`
	AdminUsername     string `yaml:"admin_username"`
	AdminPasswordHash string `yaml:"admin_password_hash"`

	Mail MailConfig `yaml:"mail"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:     ":5000",
		GinMode:      "release",
		LogLevel:     "info",
		CORSOrigins:  []string{"*"},
		Timezone:     "Local",
		StoreDriver:  StoreSQLite,
		DBName:       "eventhub",
		SQLiteDSN:    "file:events.db?mode=rwc",
		PhotoStorage: PhotosLocal,
		UploadDir:    "uploads",
		UploadURL:    "/uploads",
		Cloudinary:   CloudinaryConfig{Folder: "events"},
	}
}

// Load reads the optional YAML file at path and then applies environment
// overrides. A missing path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTPAddr, "HTTP_ADDR")
	setString(&c.GinMode, "GIN_MODE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Timezone, "TIMEZONE")
	setString(&c.StoreDriver, "STORE_DRIVER")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.DBName, "DB_NAME")
	setString(&c.SQLiteDSN, "SQLITE_DSN")
	setString(&c.PhotoStorage, "PHOTO_STORAGE")
	setString(&c.UploadDir, "UPLOAD_DIR")
	setString(&c.UploadURL, "UPLOAD_URL")
	setString(&c.Cloudinary.CloudName, "CLOUDINARY_CLOUD_NAME")
	setString(&c.Cloudinary.APIKey, "CLOUDINARY_API_KEY")
	setString(&c.Cloudinary.APISecret, "CLOUDINARY_API_SECRET")
	setString(&c.Cloudinary.Folder, "CLOUDINARY_FOLDER")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.AdminUsername, "ADMIN_USERNAME")
	setString(&c.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.Mail.APIURL, "ZEPTO_API_URL")
	setString(&c.Mail.APIKey, "ZEPTO_API_KEY")
	setString(&c.Mail.From, "EMAIL_FROM")

	if raw := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); raw != "" {
		c.CORSOrigins = splitList(raw)
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Normalize fills zero values with defaults so partial files still work.
func (c *Config) Normalize() {
	d := Default()
	if c.HTTPAddr == "" {
		c.HTTPAddr = d.HTTPAddr
	}
	if c.GinMode == "" {
		c.GinMode = d.GinMode
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = d.CORSOrigins
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	c.StoreDriver = strings.ToLower(c.StoreDriver)
	if c.StoreDriver == "" {
		c.StoreDriver = d.StoreDriver
	}
	if c.DBName == "" {
		c.DBName = d.DBName
	}
	if c.SQLiteDSN == "" {
		c.SQLiteDSN = d.SQLiteDSN
	}
	c.PhotoStorage = strings.ToLower(c.PhotoStorage)
	if c.PhotoStorage == "" {
		c.PhotoStorage = d.PhotoStorage
	}
	if c.UploadDir == "" {
		c.UploadDir = d.UploadDir
	}
	if c.UploadURL == "" {
		c.UploadURL = d.UploadURL
	}
	if c.Cloudinary.Folder == "" {
		c.Cloudinary.Folder = d.Cloudinary.Folder
	}
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreSQLite:
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.StoreDriver))
	}

	switch c.PhotoStorage {
	case PhotosLocal:
	case PhotosCloudinary:
		if c.Cloudinary.CloudName == "" || c.Cloudinary.APIKey == "" || c.Cloudinary.APISecret == "" {
			errs = append(errs, errors.New("cloudinary credentials are incomplete"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown photo storage %q", c.PhotoStorage))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("unknown TIMEZONE %q", c.Timezone))
	}

	if c.JWTSecret != "" && (c.AdminUsername == "" || c.AdminPasswordHash == "") {
		errs = append(errs, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD_HASH are required when JWT_SECRET is set"))
	}
	return errors.Join(errs...)
}

// AuthEnabled reports whether admin routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

package buildCFG

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
)

const (
	EnvDevelopment = "development"

	TransportSMTP   = "smtp"
	TransportResend = "resend"
	TransportNoop   = "noop"
)

type ServerConfig struct {
	Port            string
	Mode            string
	AllowOrigins    []string
	ShutdownTimeout time.Duration
}

type StoreConfig struct {
	Driver         string
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RelayConfig struct {
	Enabled  bool
	URL      string
	Exchange string
	Queue    string
}

type MailConfig struct {
	Transport    string
	From         string
	SMTPHost     string
	SMTPPort     int
	User         string
	Password     string
	ResendAPIKey string
	Festival     string
	SupportEmail string
	SiteURL      string
	Relay        RelayConfig
}

type AdminConfig struct {
	Email         string
	Password      string
	PasswordHash  string
	SessionSecret string
}

type AppConfig struct {
	Env         string
	CatalogPath string
	Server      ServerConfig
	Store       StoreConfig
	Mail        MailConfig
	Admin       AdminConfig
}

func (c *AppConfig) Development() bool {
	return c.Env == EnvDevelopment
}

// Load reads path through wbf/config after loading envFile into the process
// environment. A missing env file is not an error.
func Load(path, envFile string, log *zerolog.Logger) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := config.New()
	if path != "" {
		if err := cfg.Load(path, "", ""); err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
	}

	app := &AppConfig{
		Env:         cfg.GetString("app.env"),
		CatalogPath: cfg.GetString("app.catalog"),
		Server:      BuildServerConfig(cfg),
		Store:       BuildStoreConfig(cfg),
		Mail:        BuildMailConfig(cfg),
		Admin:       AdminConfig{},
	}
	applyEnv(app, os.Getenv)
	applyDefaults(app)

	if err := app.validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("env", app.Env).
		Str("store", app.Store.Driver).
		Str("mail", app.Mail.Transport).
		Bool("relay", app.Mail.Relay.Enabled).
		Msg("configuration loaded")
	return app, nil
}

func BuildServerConfig(cfg *config.Config) ServerConfig {
	return ServerConfig{
		Port:            cfg.GetString("server.port"),
		Mode:            cfg.GetString("server.mode"),
		AllowOrigins:    cfg.GetStringSlice("server.allow_origins"),
		ShutdownTimeout: cfg.GetDuration("server.shutdown_timeout"),
	}
}

func BuildStoreConfig(cfg *config.Config) StoreConfig {
	return StoreConfig{
		Driver:         cfg.GetString("store.driver"),
		URI:            cfg.GetString("store.uri"),
		Database:       cfg.GetString("store.database"),
		ConnectTimeout: cfg.GetDuration("store.connect_timeout"),
	}
}

func BuildMailConfig(cfg *config.Config) MailConfig {
	return MailConfig{
		Transport:    cfg.GetString("mail.transport"),
		From:         cfg.GetString("mail.from"),
		SMTPHost:     cfg.GetString("mail.smtp_host"),
		SMTPPort:     cfg.GetInt("mail.smtp_port"),
		Festival:     cfg.GetString("mail.festival"),
		SupportEmail: cfg.GetString("mail.support_email"),
		SiteURL:      cfg.GetString("mail.site_url"),
		Relay: RelayConfig{
			Enabled:  cfg.GetBool("mail.relay.enabled"),
			URL:      cfg.GetString("mail.relay.url"),
			Exchange: cfg.GetString("mail.relay.exchange"),
			Queue:    cfg.GetString("mail.relay.queue"),
		},
	}
}

// applyEnv overlays secrets and deployment settings from the environment.
func applyEnv(c *AppConfig, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Env, "APP_ENV")
	set(&c.Server.Port, "PORT")
	set(&c.Store.URI, "MONGODB_URI")
	set(&c.Admin.Email, "ADMIN_EMAIL")
	set(&c.Admin.Password, "ADMIN_PASSWORD")
	set(&c.Admin.PasswordHash, "ADMIN_PASSWORD_HASH")
	set(&c.Admin.SessionSecret, "SESSION_SECRET")
	set(&c.Mail.User, "EMAIL_USER")
	set(&c.Mail.Password, "EMAIL_PASSWORD")
	set(&c.Mail.ResendAPIKey, "RESEND_API_KEY")
	set(&c.Mail.Relay.URL, "RABBITMQ_URL")

	// A Mongo URI selects the Mongo store over whatever driver the file names.
	if strings.TrimSpace(getenv("MONGODB_URI")) != "" {
		c.Store.Driver = "mongo"
	}
	if v := getenv("MAIL_RELAY_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Mail.Relay.Enabled = b
		}
	}
}

func applyDefaults(c *AppConfig) {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Server.Port == "" {
		c.Server.Port = "3000"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Store.Driver == "" {
		c.Store.Driver = "sqlite"
	}
	if c.Store.URI == "" && c.Store.Driver == "sqlite" {
		c.Store.URI = "file:tryst.db?_pragma=busy_timeout(5000)"
	}
	if c.Store.Database == "" {
		c.Store.Database = "tryst"
	}
	if c.Store.ConnectTimeout == 0 {
		c.Store.ConnectTimeout = 10 * time.Second
	}

	if c.Mail.Transport == "" {
		switch {
		case c.Mail.ResendAPIKey != "":
			c.Mail.Transport = TransportResend
		case c.Mail.User != "":
			c.Mail.Transport = TransportSMTP
		default:
			c.Mail.Transport = TransportNoop
		}
	}
	if c.Mail.SMTPHost == "" {
		c.Mail.SMTPHost = "smtp.gmail.com"
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = 587
	}
	if c.Mail.From == "" {
		c.Mail.From = c.Mail.User
	}
	if c.Mail.Festival == "" {
		c.Mail.Festival = "TRYST 2025"
	}
	if c.Mail.Relay.Exchange == "" {
		c.Mail.Relay.Exchange = "tryst.mail"
	}
	if c.Mail.Relay.Queue == "" {
		c.Mail.Relay.Queue = "tryst.mail.outbound"
	}
}

func (c *AppConfig) validate() error {
	switch c.Mail.Transport {
	case TransportSMTP:
		if c.Mail.User == "" || c.Mail.Password == "" {
			return errors.New("smtp transport needs EMAIL_USER and EMAIL_PASSWORD")
		}
	case TransportResend:
		if c.Mail.ResendAPIKey == "" {
			return errors.New("resend transport needs RESEND_API_KEY")
		}
		if c.Mail.From == "" {
			return errors.New("resend transport needs mail.from")
		}
	case TransportNoop:
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	if c.Mail.Relay.Enabled && c.Mail.Relay.URL == "" {
		return errors.New("mail relay enabled without RABBITMQ_URL")
	}
	if c.Store.Driver == "mongo" && c.Store.URI == "" {
		return errors.New("mongo store needs MONGODB_URI")
	}
	return nil
}

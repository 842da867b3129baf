// Package config provides functionality for managing configuration options
// for the server and the client using command-line flags, an optional JSON
// config file and environment variables.
//
// Precedence, lowest first: flag defaults, config file, explicitly set
// flags, environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

// ServerOptions holds the configuration values of the records server.
type ServerOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" validate:"required,hostname_port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" validate:"required"`

	TLSCert string `json:"tls_cert" validate:"required"`
	TLSKey  string `json:"tls_key" validate:"required"`
	TLSCA   string `json:"tls_ca" validate:"required"`

	// AllowOwnerHeader accepts X-Owner-ID from clients without a certificate.
	AllowOwnerHeader bool `json:"allow_owner_header"`

	CleanerInterval  Duration `json:"cleaner_interval" validate:"gt=0"`
	CleanerRetention Duration `json:"cleaner_retention" validate:"gt=0"`

	LogLevel string `json:"log_level" validate:"oneof=debug info warn error Debug Info Warn Error"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// ClientOptions holds the configuration values of the board client.
type ClientOptions struct {
	ServerURL string `json:"server_url" validate:"required,url"`
	Owner     string `json:"owner" validate:"required"`

	ClientCert string `json:"client_cert" validate:"required_with=ClientKey"`
	ClientKey  string `json:"client_key" validate:"required_with=ClientCert"`
	CA         string `json:"ca"`

	// AssetDirs are the card source directories, in precedence order.
	AssetDirs   []string `json:"asset_dirs" validate:"required,min=1,dive,required"`
	CategoryDir string   `json:"category_dir"`
	// Overrides is an optional YAML file with plural and verb overrides.
	Overrides string `json:"overrides"`

	DatabasePath string `json:"database_path" validate:"required"`

	GeminiAPIKey string `json:"-"`
	GeminiModel  string `json:"gemini_model"`

	SyncInterval Duration `json:"sync_interval" validate:"gt=0"`
	LogLevel     string   `json:"log_level" validate:"oneof=debug info warn error Debug Info Warn Error"`

	Config string `json:"-"`
}

// Duration is a time.Duration that reads "30s" style strings from JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("duration must be a string or an integer")
	}
	*d = Duration(n)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type stringList []string

func (l *stringList) String() string { return fmt.Sprint(*l) }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ParseServer parses args (without the program name) and the environment
// into ServerOptions.
func ParseServer(args []string) (*ServerOptions, error) {
	opts := &ServerOptions{}
	var interval, retention time.Duration
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.Port, "a", "localhost:8443", "run on ip:port server")
	fs.StringVar(&opts.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&opts.TLSCert, "tls-cert", "certs/server.crt", "server certificate")
	fs.StringVar(&opts.TLSKey, "tls-key", "certs/server.key", "server key")
	fs.StringVar(&opts.TLSCA, "tls-ca", "certs/ca.crt", "CA used to verify device certificates")
	fs.BoolVar(&opts.AllowOwnerHeader, "allow-owner-header", false, "accept X-Owner-ID without a client certificate")
	fs.DurationVar(&interval, "cleaner-interval", time.Hour, "soft-delete cleaner interval")
	fs.DurationVar(&retention, "cleaner-retention", 30*24*time.Hour, "how long deleted records are kept")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	fs.StringVar(&opts.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.CleanerInterval, opts.CleanerRetention = Duration(interval), Duration(retention)

	// Flags given on the command line win over the file, so they are parsed
	// again on top of it.
	if path := configPath(opts.Config); path != "" {
		if err := loadFile(path, opts); err != nil {
			return nil, err
		}
		interval, retention = opts.CleanerInterval.Std(), opts.CleanerRetention.Std()
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		opts.CleanerInterval, opts.CleanerRetention = Duration(interval), Duration(retention)
		opts.Config = path
	}

	if serverAddress := os.Getenv("SERVER_ADDRESS"); serverAddress != "" {
		opts.Port = serverAddress
	}
	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		opts.DatabaseDSN = dsn
	}
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		opts.LogLevel = lvl
	}

	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	return opts, nil
}

// ParseClient parses args (without the program name) and the environment
// into ClientOptions.
func ParseClient(args []string) (*ClientOptions, error) {
	opts := &ClientOptions{}
	var assets stringList
	var interval time.Duration
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&opts.ServerURL, "server", "https://localhost:8443", "records server URL")
	fs.StringVar(&opts.Owner, "owner", "", "owner ID (the device certificate CN)")
	fs.StringVar(&opts.ClientCert, "cert", "", "device certificate")
	fs.StringVar(&opts.ClientKey, "key", "", "device key")
	fs.StringVar(&opts.CA, "ca", "", "CA certificate")
	fs.Var(&assets, "assets", "card asset directory (repeatable)")
	fs.StringVar(&opts.CategoryDir, "categories", "", "category icon directory")
	fs.StringVar(&opts.Overrides, "overrides", "", "YAML file with plural and verb overrides")
	fs.StringVar(&opts.DatabasePath, "db", "symbolboard.db", "local SQLite database")
	fs.StringVar(&opts.GeminiModel, "model", "", "Gemini model name")
	fs.DurationVar(&interval, "sync-interval", 30*time.Second, "auto-sync interval")
	fs.StringVar(&opts.LogLevel, "log-level", "warn", "log level")
	fs.StringVar(&opts.Config, "config", "", "path to config file")
	fs.StringVar(&opts.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.AssetDirs = assets
	opts.SyncInterval = Duration(interval)

	if path := configPath(opts.Config); path != "" {
		if err := loadFile(path, opts); err != nil {
			return nil, err
		}
		assets, interval = nil, opts.SyncInterval.Std()
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if len(assets) > 0 {
			opts.AssetDirs = assets
		}
		opts.SyncInterval = Duration(interval)
		opts.Config = path
	}

	if owner := os.Getenv("SYMBOLBOARD_OWNER"); owner != "" {
		opts.Owner = owner
	}
	if url := os.Getenv("SERVER_URL"); url != "" {
		opts.ServerURL = url
	}
	opts.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}
	return opts, nil
}

// configPath returns the config file path, letting CONFIG override the flag.
func configPath(flagValue string) string {
	if envPath := os.Getenv("CONFIG"); envPath != "" {
		return envPath
	}
	return flagValue
}

func loadFile(path string, opts any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, opts); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

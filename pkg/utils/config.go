package utils

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mangashelf/pkg/database"
)

type (
	Config struct {
		HTTP     HTTPConfig
		GRPC     GrpcConfig
		Database database.Config
		Auth     AuthConfig
		Library  LibraryConfig
	}

	HTTPConfig struct {
		Addr           string
		TrustedProxies []string
	}

	GrpcConfig struct {
		Addr string
	}

	AuthConfig struct {
		JWTSecret     string
		JWTIssuer     string
		JWTDuration   time.Duration
		SecureCookies bool
		CSRFEnabled   bool
		CSRFSecret    string
	}

	LibraryConfig struct {
		// DefaultDirectory is used until the manga_directory setting is saved.
		DefaultDirectory string
	}
)

const (
	envPrefix          = "MANGASHELF"
	defaultJWTSecret   = "dev-secret-change-me"
	defaultJWTDuration = 24 * time.Hour
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigName("mangashelf")
	v.AddConfigPath(".")

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("trusted_proxies", "127.0.0.1")
	v.SetDefault("grpc_addr", ":9090")
	v.SetDefault("db_path", database.DefaultPath())
	v.SetDefault("jwt_secret", defaultJWTSecret)
	v.SetDefault("jwt_issuer", "mangashelf")
	v.SetDefault("jwt_ttl", defaultJWTDuration.String())
	v.SetDefault("secure_cookies", false)
	v.SetDefault("csrf_enabled", false)
	v.SetDefault("csrf_secret", "")
	v.SetDefault("manga_directory", "./mangas")
	return v
}

// LoadConfig reads MANGASHELF_* environment variables, then an optional
// mangashelf.{yaml,toml,json} in the working directory.
func LoadConfig() (Config, error) {
	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}
	return fromViper(v), nil
}

func fromViper(v *viper.Viper) Config {
	// a malformed duration falls back to the default instead of failing startup
	ttl := v.GetDuration("jwt_ttl")
	if ttl <= 0 {
		ttl = defaultJWTDuration
	}

	secret := v.GetString("jwt_secret")
	if secret == "" {
		secret = defaultJWTSecret
	}
	csrfSecret := v.GetString("csrf_secret")
	if csrfSecret == "" {
		csrfSecret = secret
	}

	return Config{
		HTTP: HTTPConfig{
			Addr:           v.GetString("http_addr"),
			TrustedProxies: splitList(v.GetString("trusted_proxies")),
		},
		GRPC: GrpcConfig{
			Addr: v.GetString("grpc_addr"),
		},
		Database: database.Config{
			Path: v.GetString("db_path"),
		},
		Auth: AuthConfig{
			JWTSecret:     secret,
			JWTIssuer:     v.GetString("jwt_issuer"),
			JWTDuration:   ttl,
			SecureCookies: v.GetBool("secure_cookies"),
			CSRFEnabled:   v.GetBool("csrf_enabled"),
			CSRFSecret:    csrfSecret,
		},
		Library: LibraryConfig{
			DefaultDirectory: v.GetString("manga_directory"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

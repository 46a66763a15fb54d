// Package config reads the server settings from flags, the environment and
// an optional .env file. Flags win over the environment, and the process
// environment wins over .env.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables.
const (
	EnvAddr          = "AFALAGI_ADDR"
	EnvDB            = "AFALAGI_DB"
	EnvAPIURL        = "AFALAGI_API_URL"
	EnvLog           = "AFALAGI_LOG"
	EnvRedisAddr     = "AFALAGI_REDIS_ADDR"
	EnvTZ            = "AFALAGI_TZ"
	EnvAPITimeout    = "AFALAGI_API_TIMEOUT"
	EnvSecureCookies = "AFALAGI_SECURE_COOKIES"
)

// Config holds the server settings.
type Config struct {
	Addr          string
	DBPath        string
	APIURL        string
	LogPath       string
	RedisAddr     string
	Location      *time.Location
	APITimeout    time.Duration
	SecureCookies bool
}

const usage = `Usage: afalagi [flags]

Flags:
  -a, -addr <host:port>     listen address (default: :8080)
  -d, -db <path>            SQLite database path (default: afalagi.sqlite3)
      -api <url>            platform API base URL (default: http://localhost:5000/api)
  -l, -log <path>           log file path (default: no file, stdout/stderr only)
      -redis <host:port>    keep wizard drafts in Redis instead of SQLite
      -tz <zone>            time zone for sighting dates (default: Local)
      -api-timeout <dur>    timeout for platform API calls (default: 15s)
      -secure-cookies       mark cookies Secure (serve over HTTPS)
  -h, -help                 show this help and exit

Every flag can also be set with the matching AFALAGI_* environment variable,
or in a .env file in the working directory.
`

// LoadEnv reads path with godotenv and overlays the process environment.
// A missing file is not an error.
func LoadEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		env = map[string]string{}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, "AFALAGI_") {
			env[k] = v
		}
	}
	return env, nil
}

// Parse builds a Config from command-line args, using env for defaults.
// It returns flag.ErrHelp after printing usage to out when -h is given.
func Parse(args []string, env map[string]string, out io.Writer) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := env[key]; ok && v != "" {
			return v
		}
		return def
	}

	defTimeout, err := time.ParseDuration(get(EnvAPITimeout, "15s"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvAPITimeout, err)
	}
	defSecure := false
	if v := get(EnvSecureCookies, ""); v != "" {
		if defSecure, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvSecureCookies, err)
		}
	}

	fset := flag.NewFlagSet("afalagi", flag.ContinueOnError)
	fset.SetOutput(out)
	fset.Usage = func() { fmt.Fprint(out, usage) }

	cfg := &Config{}
	var tz string

	fset.StringVar(&cfg.Addr, "addr", get(EnvAddr, ":8080"), "")
	fset.StringVar(&cfg.Addr, "a", get(EnvAddr, ":8080"), "")
	fset.StringVar(&cfg.DBPath, "db", get(EnvDB, "afalagi.sqlite3"), "")
	fset.StringVar(&cfg.DBPath, "d", get(EnvDB, "afalagi.sqlite3"), "")
	fset.StringVar(&cfg.APIURL, "api", get(EnvAPIURL, "http://localhost:5000/api"), "")
	fset.StringVar(&cfg.LogPath, "log", get(EnvLog, ""), "")
	fset.StringVar(&cfg.LogPath, "l", get(EnvLog, ""), "")
	fset.StringVar(&cfg.RedisAddr, "redis", get(EnvRedisAddr, ""), "")
	fset.StringVar(&tz, "tz", get(EnvTZ, "Local"), "")
	fset.DurationVar(&cfg.APITimeout, "api-timeout", defTimeout, "")
	fset.BoolVar(&cfg.SecureCookies, "secure-cookies", defSecure, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		fset.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("time zone %q: %w", tz, err)
	}
	if cfg.APITimeout <= 0 {
		return nil, fmt.Errorf("api timeout must be positive, got %s", cfg.APITimeout)
	}
	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, fmt.Errorf("api url must start with http:// or https://, got %q", cfg.APIURL)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return cfg, nil
}

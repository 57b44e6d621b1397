package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var loadOnce sync.Once

// Config returns the value of an environment variable. The .env file in the
// working directory, if any, is loaded on first use; variables already set in
// the process environment win over the file.
func Config(key string) string {
	loadOnce.Do(func() {
		_ = godotenv.Load(".env")
	})
	return os.Getenv(key)
}

// ConfigDefault is Config with a fallback for unset or blank keys.
func ConfigDefault(key string, def string) string {
	if v := strings.TrimSpace(Config(key)); v != "" {
		return v
	}
	return def
}

func ConfigInt64(key string, def int64) int64 {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func ConfigBool(key string, def bool) bool {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// ConfigDuration accepts Go duration strings ("90s") or a bare number of
// minutes ("15").
func ConfigDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(Config(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	return def
}

// ConfigList splits a comma separated value, dropping empty items.
func ConfigList(key string, def string) []string {
	var out []string
	for _, item := range strings.Split(ConfigDefault(key, def), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Package config provides lookup helpers over Viper and the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	// If Viper doesn't have it but OS does, return OS value
	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetDuration returns a duration setting, or def when unset or unparsable.
func GetDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(GetString(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

// GetFloat returns a float setting, or def when unset.
func GetFloat(key string, def float64) float64 {
	if !viper.IsSet(key) {
		return def
	}
	return viper.GetFloat64(key)
}

// GetInt returns an int setting, or def when unset or not positive.
func GetInt(key string, def int) int {
	if !viper.IsSet(key) {
		return def
	}
	if n := viper.GetInt(key); n > 0 {
		return n
	}
	return def
}

// GetUsers reads the operator accounts. The setting is either a map of
// username to bcrypt hash, or a comma-separated "user:hash" list when set
// through the environment.
func GetUsers(key string) map[string]string {
	if m := viper.GetStringMapString(key); len(m) > 0 {
		return m
	}
	users := map[string]string{}
	for _, pair := range strings.Split(GetString(key), ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" || hash == "" {
			continue
		}
		users[name] = hash
	}
	return users
}

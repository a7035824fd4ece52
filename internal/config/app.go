package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Development reports whether DEVELOPMENT is set to anything but "0".
func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	return ok && development != "0"
}

func BasePath() string {
	return strings.TrimSuffix(os.Getenv("APP_BASE_PATH"), "/")
}

// Port is the listen address, ":8080" when APP_PORT is unset.
func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// CorsOrigins lists the comma-separated CORS_ORIGINS; empty allows any origin.
func CorsOrigins() []string {
	var origins []string
	for _, o := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// requireEnv returns the values of keys in order. The error names every
// unset key.
func requireEnv(keys ...string) ([]string, error) {
	values := make([]string, len(keys))
	var missing []string
	for i, key := range keys {
		value, ok := os.LookupEnv(key)
		if !ok {
			missing = append(missing, key)
			continue
		}
		values[i] = value
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("env variables not set: %s", strings.Join(missing, ", "))
	}
	return values, nil
}

// secret reads key from the environment, or from the file named by
// key_FILE with surrounding whitespace trimmed.
func secret(key string) ([]byte, error) {
	if value, ok := os.LookupEnv(key); ok {
		return []byte(value), nil
	}
	path, ok := os.LookupEnv(key + "_FILE")
	if !ok {
		return nil, fmt.Errorf("no %s or %s_FILE env variable set", key, key)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s_FILE: %w", key, err)
	}
	return bytes.TrimSpace(data), nil
}

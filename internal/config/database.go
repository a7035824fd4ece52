package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Database holds the POSTGRES_* connection settings of the game store.
type Database struct {
	Username string
	Password string
	Host     string
	Port     uint16
	DBName   string
	SSLMode  string
}

// NewDatabase reads POSTGRES_USER, POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB
// and POSTGRES_SSLMODE. The password comes from POSTGRES_PASSWORD or the
// file named by POSTGRES_PASSWORD_FILE.
func NewDatabase() (*Database, error) {
	env, err := requireEnv(
		"POSTGRES_USER", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DB", "POSTGRES_SSLMODE",
	)
	if err != nil {
		return nil, err
	}
	username, host, portStr, dbName, sslMode := env[0], env[1], env[2], env[3], env[4]

	password, err := secret("POSTGRES_PASSWORD")
	if err != nil {
		return nil, fmt.Errorf("unable to load password: %w", err)
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid POSTGRES_PORT: %w", err)
	}

	return &Database{
		Username: username,
		Password: string(password),
		Host:     host,
		Port:     uint16(port),
		DBName:   dbName,
		SSLMode:  sslMode,
	}, nil
}

func (c Database) URL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.Username, url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func (c Database) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%d dbname=%s sslmode=%s",
		c.Username, quoteDSN(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// quoteDSN quotes a keyword/value connection string value.
func quoteDSN(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// connString is DATABASE_URL when set, otherwise the POSTGRES_* settings
// rendered by format.
func connString(format func(Database) string) (string, error) {
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		return dbURL, nil
	}
	cfg, err := NewDatabase()
	if err != nil {
		return "", fmt.Errorf("no DATABASE_URL set; %w", err)
	}
	return format(*cfg), nil
}

// DbURL is the URL form golang-migrate expects.
func DbURL() (string, error) {
	return connString(Database.URL)
}

// NewPgxpoolConfig sizes the pool by POSTGRES_MAX_CONNS when set.
func NewPgxpoolConfig() (*pgxpool.Config, error) {
	conn, err := connString(Database.DSN)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, err
	}

	if s, ok := os.LookupEnv("POSTGRES_MAX_CONNS"); ok {
		maxConns, err := strconv.ParseInt(s, 10, 32)
		if err != nil || maxConns <= 0 {
			return nil, fmt.Errorf("POSTGRES_MAX_CONNS must be a positive integer")
		}
		poolConfig.MaxConns = int32(maxConns)
	}

	return poolConfig, nil
}

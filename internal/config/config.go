package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Gateway  GatewayConfig
	Ledger   LedgerConfig
	App      AppConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// GatewayConfig holds confidential-compute gateway settings
type GatewayConfig struct {
	BaseURL         string
	SignerPubKeys   []string
	SignerThreshold int
}

// LedgerConfig holds escrow vault settings
type LedgerConfig struct {
	Mode                  string // "db" or "solana"
	Network               string
	VaultWalletPrivateKey string
	EscrowProgramID       string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret        string
	AdminWallet      string
	WatchdogInterval string
	WatchdogMaxAge   string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	threshold, err := strconv.Atoi(getEnv("GATEWAY_SIGNER_THRESHOLD", "1"))
	if err != nil || threshold < 1 {
		return nil, fmt.Errorf("GATEWAY_SIGNER_THRESHOLD must be a positive integer")
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "oraclebook"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Gateway: GatewayConfig{
			BaseURL:         getEnv("GATEWAY_URL", "http://localhost:7077"),
			SignerPubKeys:   splitList(getEnv("GATEWAY_SIGNER_PUBKEYS", "")),
			SignerThreshold: threshold,
		},
		Ledger: LedgerConfig{
			Mode:                  getEnv("LEDGER_MODE", "db"),
			Network:               getEnv("SOLANA_NETWORK", "devnet"),
			VaultWalletPrivateKey: getEnv("VAULT_WALLET_PRIVATE_KEY", ""),
			EscrowProgramID:       getEnv("ESCROW_PROGRAM_ID", ""),
		},
		App: AppConfig{
			JWTSecret:        getEnv("JWT_SECRET", ""),
			AdminWallet:      getEnv("ADMIN_WALLET", ""),
			WatchdogInterval: getEnv("WATCHDOG_INTERVAL", "5m"),
			WatchdogMaxAge:   getEnv("WATCHDOG_MAX_AGE", "10m"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if len(config.Gateway.SignerPubKeys) < config.Gateway.SignerThreshold {
		return nil, fmt.Errorf("GATEWAY_SIGNER_PUBKEYS must list at least %d keys", config.Gateway.SignerThreshold)
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma-separated env value, dropping empty items
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

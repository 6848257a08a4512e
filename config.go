package main

import (
	"github.com/spf13/viper"
)

// Config holds the process settings. Values come from the environment (optionally a .env file) and flags.
type Config struct {
	Port             string
	MCPPort          string
	AppEnv           string
	CertPath         string
	KeyPath          string
	TempDir          string
	LogLevel         string
	MaxSegmentLength float64
	MaxBodyBytes     int64
}

const (
	keyPort             = "PORT"
	keyMCPPort          = "MCP_PORT"
	keyAppEnv           = "APP_ENV"
	keyCertPath         = "CERT_PATH"
	keyKeyPath          = "KEY_PATH"
	keyTempDir          = "TEMP_DIR"
	keyLogLevel         = "LOG_LEVEL"
	keyMaxSegmentLength = "MAX_SEGMENT_LENGTH"
	keyMaxBodyBytes     = "MAX_BODY_BYTES"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(keyPort, "8080")
	v.SetDefault(keyMCPPort, MCPPort)
	v.SetDefault(keyAppEnv, "dev")
	v.SetDefault(keyTempDir, "temp")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyMaxSegmentLength, 0.0)
	v.SetDefault(keyMaxBodyBytes, int64(32<<20))
	v.AutomaticEnv()
	return v
}

func loadConfig(v *viper.Viper) Config {
	return Config{
		Port:             v.GetString(keyPort),
		MCPPort:          v.GetString(keyMCPPort),
		AppEnv:           v.GetString(keyAppEnv),
		CertPath:         v.GetString(keyCertPath),
		KeyPath:          v.GetString(keyKeyPath),
		TempDir:          v.GetString(keyTempDir),
		LogLevel:         v.GetString(keyLogLevel),
		MaxSegmentLength: v.GetFloat64(keyMaxSegmentLength),
		MaxBodyBytes:     v.GetInt64(keyMaxBodyBytes),
	}
}

// isProd reports whether the server should run with TLS
func (c Config) isProd() bool {
	return c.AppEnv == "prod"
}

package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/jacky-htg/call-console/libs/logging"
)

// Server settings keys.
const (
	KeyHTTPAddr       = "CONSOLE_HTTP_ADDR"
	KeySettleDelay    = "CONSOLE_SETTLE_DELAY"
	KeyLogLevel       = "LOG_LEVEL"
	KeyLogFormat      = "LOG_FORMAT"
	KeyLogFile        = "LOG_FILE"
	KeyLogMaxSizeMB   = "LOG_MAX_SIZE_MB"
	KeyLogMaxBackups  = "LOG_MAX_BACKUPS"
	KeyLogMaxAgeDays  = "LOG_MAX_AGE_DAYS"
	DefaultSettleTime = 2 * time.Second
)

// ServerConfig holds the console server's own settings.
type ServerConfig struct {
	HTTPAddr    string
	SettleDelay time.Duration
	Log         logging.Config
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault(KeyHTTPAddr, ":8080")
	v.SetDefault(KeySettleDelay, DefaultSettleTime.String())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogMaxSizeMB, 100)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAgeDays, 28)
}

// LoadServer reads ServerConfig from v. A non-positive settle delay falls back
// to DefaultSettleTime.
func LoadServer(v *viper.Viper) ServerConfig {
	cfg := ServerConfig{
		HTTPAddr:    v.GetString(KeyHTTPAddr),
		SettleDelay: v.GetDuration(KeySettleDelay),
		Log: logging.Config{
			Level:      v.GetString(KeyLogLevel),
			Format:     v.GetString(KeyLogFormat),
			File:       v.GetString(KeyLogFile),
			MaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
			MaxBackups: v.GetInt(KeyLogMaxBackups),
			MaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
		},
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleTime
	}
	return cfg
}

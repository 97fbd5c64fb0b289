package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/contracts-backend/internal/pkg/logger"
)

func String(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(val) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment")
	}
	return strings.TrimSpace(val)
}

func Int(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(valStr) == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}

func Bool(key string, defaultVal bool, log *logger.Logger) bool {
	v := strings.ToLower(String(key, "", log))
	switch v {
	case "":
		return defaultVal
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		if log != nil {
			log.Warn("Environment variable could not be parsed as bool, using default", "env_var", key, "providedVal", v, "defaultVal", defaultVal)
		}
		return defaultVal
	}
}

// Seconds reads an integer number of seconds.
func Seconds(key string, defaultVal time.Duration, log *logger.Logger) time.Duration {
	n := Int(key, int(defaultVal/time.Second), log)
	if n < 0 {
		return defaultVal
	}
	return time.Duration(n) * time.Second
}

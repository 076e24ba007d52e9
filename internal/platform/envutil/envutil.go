package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cesizen/cesizen-backend/internal/platform/logger"
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
		log.Debug("Environment variable found, using environment", "environment", val)
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
			log.Debug("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using it", "value", i)
	}
	return i
}

func Bool(key string, defaultVal bool, log *logger.Logger) bool {
	raw := strings.ToLower(String(key, "", log))
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultVal
	}
}

// Seconds reads an integer number of seconds as a duration.
func Seconds(key string, defaultSeconds int, log *logger.Logger) time.Duration {
	return time.Duration(Int(key, defaultSeconds, log)) * time.Second
}

// List splits a comma separated variable, dropping blanks.
func List(key string, defaultVal []string, log *logger.Logger) []string {
	raw := String(key, "", log)
	if raw == "" {
		return defaultVal
	}
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func Float(key string, defaultVal float64, log *logger.Logger) float64 {
	raw := String(key, "", log)
	if raw == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if log != nil {
			log.Debug("Environment variable could not be parsed as float, using default", "env_var", key, "providedVal", raw, "defaultVal", defaultVal)
		}
		return defaultVal
	}
	return f
}

// Secret reads a credential. Only its presence is logged.
func Secret(key, defaultVal string, log *logger.Logger) string {
	val := strings.TrimSpace(os.Getenv(key))
	if log != nil {
		log.Debug("Secret environment variable resolved", "env_var", key, "set", val != "")
	}
	if val == "" {
		return defaultVal
	}
	return val
}

package config

import (
	"os"
	"strconv"
	"time"
)

// EnvOrDefaultValue parses the environment variable key as T, returning
// defaultValue when it is unset or does not parse.
func EnvOrDefaultValue[T any](key string, defaultValue T) T {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}

	if v, ok := parse(value, defaultValue); ok {
		return v
	}
	return defaultValue
}

func parse[T any](value string, typed T) (T, bool) {
	switch any(typed).(type) {
	case string:
		return any(value).(T), true
	case int:
		if intValue, err := strconv.Atoi(value); err == nil {
			return any(intValue).(T), true
		}
	case int64:
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return any(intValue).(T), true
		}
	case uint:
		if uintValue, err := strconv.ParseUint(value, 10, 0); err == nil {
			return any(uint(uintValue)).(T), true
		}
	case uint64:
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return any(uintValue).(T), true
		}
	case float64:
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return any(floatValue).(T), true
		}
	case bool:
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return any(boolValue).(T), true
		}
	case time.Duration:
		if durationValue, err := time.ParseDuration(value); err == nil {
			return any(durationValue).(T), true
		}
	}

	return typed, false
}

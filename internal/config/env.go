package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sandeepkv93/dayplan/internal/model"
)

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}

func getEnvClock(name string) (model.ClockTime, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	c, err := model.ParseClock(raw)
	if err != nil {
		return 0, false
	}
	return c, true
}

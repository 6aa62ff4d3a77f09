package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// LogSettings are read once when the process starts
type LogSettings struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// LoadLog reads LOG_LEVEL and LOG_FILE, falling back to info level on stdout
func LoadLog() LogSettings {

	ls := LogSettings{Level: "info"}

	k := koanf.New(".")
	err := k.Load(env.Provider("LOG_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LOG_"))
	}), nil)
	if err != nil {
		return ls
	}

	if v := strings.TrimSpace(k.String("level")); v != "" {
		ls.Level = v
	}
	ls.File = strings.TrimSpace(k.String("file"))

	return ls
}

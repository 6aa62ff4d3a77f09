// Package config builds the settings snapshot the gateway reads on every
// invocation.
//
// Values come from the process environment through koanf and are checked with
// go-playground/validator. Nothing is cached: each call to Load sees the
// environment as it is at that moment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/UKHomeOffice/formgate/pkg/airtable"
)

const (
	// DefaultTable is used when AIRTABLE_TABLE is unset
	DefaultTable = "Submissions"
	// DefaultOrigin is used when CORS_ORIGIN is unset
	DefaultOrigin = "*"
	// DefaultTimeout bounds the outbound Airtable call
	DefaultTimeout = 10 * time.Second
	// CredentialPrefix is how Airtable personal access tokens start
	CredentialPrefix = "pat"
)

// keys maps the environment variables we read to koanf keys.
var keys = map[string]string{
	"AIRTABLE_API_KEY":       "api_key",
	"AIRTABLE_API_KEY_PARAM": "api_key_param",
	"AIRTABLE_BASE_ID":       "base_id",
	"AIRTABLE_TABLE":         "table",
	"AIRTABLE_API_URL":       "api_url",
	"AIRTABLE_TIMEOUT":       "timeout",
	"CORS_ORIGIN":            "cors_origin",
}

// Settings is a read-only configuration snapshot for one invocation.
type Settings struct {
	APIKey      string        `koanf:"api_key" validate:"required,startswith=pat"`
	APIKeyParam string        `koanf:"api_key_param"`
	BaseID      string        `koanf:"base_id" validate:"required"`
	Table       string        `koanf:"table"`
	APIURL      string        `koanf:"api_url"`
	Timeout     time.Duration `koanf:"timeout"`
	CORSOrigin  string        `koanf:"cors_origin"`
}

// Setting names a group of values that failed validation
type Setting string

const (
	// SettingCredential is the Airtable token
	SettingCredential Setting = "credential"
	// SettingStore is the Airtable base id
	SettingStore Setting = "store"
)

// Error reports an unusable setting
type Error struct {
	Setting Setting
	Reason  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %v setting: %v", e.Setting, e.Reason)
}

var validate = validator.New()

// Defaults returns the settings used when nothing is configured
func Defaults() Settings {
	return Settings{
		Table:      DefaultTable,
		APIURL:     airtable.DefaultURL,
		Timeout:    DefaultTimeout,
		CORSOrigin: DefaultOrigin,
	}
}

// Load reads the environment into a Settings snapshot. It does not validate
// the result; see Validate. A non-nil error alongside the settings means a
// value was ignored; the returned settings are still usable.
func Load() (Settings, error) {

	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		value = strings.TrimSpace(value)
		if value == "" {
			return "", nil
		}
		return keys[key], value
	}), nil)
	if err != nil {
		return Defaults(), fmt.Errorf("could not load environment: %v", err)
	}

	var warn error
	s := Settings{}
	err = k.Unmarshal("", &s)
	if err != nil {
		// timeout is the only key that can fail to decode
		warn = fmt.Errorf("ignoring AIRTABLE_TIMEOUT: %v", err)
		k.Delete("timeout")
		s = Settings{}
		if err := k.Unmarshal("", &s); err != nil {
			return Defaults(), fmt.Errorf("could not unmarshal settings: %v", err)
		}
	}

	d := Defaults()
	if s.Table == "" {
		s.Table = d.Table
	}
	if s.APIURL == "" {
		s.APIURL = d.APIURL
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.CORSOrigin == "" {
		s.CORSOrigin = d.CORSOrigin
	}

	return s, warn
}

// Validate checks the settings required to call Airtable. The credential is
// checked before the base id.
func (s Settings) Validate() error {

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("could not validate settings: %v", err)
	}

	for _, fe := range ve {
		if fe.Field() == "APIKey" {
			return credentialError(fe)
		}
	}
	for _, fe := range ve {
		if fe.Field() == "BaseID" {
			return &Error{Setting: SettingStore, Reason: "AIRTABLE_BASE_ID is not set"}
		}
	}

	return fmt.Errorf("could not validate settings: %v", err)
}

func credentialError(fe validator.FieldError) *Error {
	if fe.Tag() == "required" {
		return &Error{Setting: SettingCredential, Reason: "AIRTABLE_API_KEY is not set"}
	}
	return &Error{
		Setting: SettingCredential,
		Reason:  fmt.Sprintf("AIRTABLE_API_KEY does not start with %q", CredentialPrefix),
	}
}

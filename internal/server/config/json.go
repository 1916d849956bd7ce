package config

import (
	"encoding/json"
	"os"

	"github.com/readease/readease/internal/flagx"
	"github.com/readease/readease/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from zero values so a partial file
// only overrides what it names.
type JsonConfig struct {
	EndpointAddrHTTP                   *string         `json:"endpoint_addr_http"`
	DatabaseDSN                        *string         `json:"database_dsn"`
	SecretKey                          *string         `json:"secret_key"`
	AccessTokenValidityDuration        *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration       *timex.Duration `json:"refresh_token_validity_duration"`
	ResetPasswordTokenValidityDuration *timex.Duration `json:"reset_password_token_validity_duration"`
	Storage                            *string         `json:"storage"`
	TokenStore                         *string         `json:"token_store"`
	RedisAddr                          *string         `json:"redis_addr"`
	SMTPAddr                           *string         `json:"smtp_addr"`
	SMTPUser                           *string         `json:"smtp_user"`
	SMTPPassword                       *string         `json:"smtp_password"`
	MailFrom                           *string         `json:"mail_from"`
	ResetPasswordURL                   *string         `json:"reset_password_url"`
	DefaultRoleID                      *int            `json:"default_role_id"`
	CookieDomain                       *string         `json:"cookie_domain"`
	CookieSecure                       *bool           `json:"cookie_secure"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $READEASE_CONFIG) onto config. Nothing happens when no file is given.
// Unreadable files and invalid JSON cause a panic.
func parseJson(config *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.Storage, c.Storage)
	setString(&config.TokenStore, c.TokenStore)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.ResetPasswordURL, c.ResetPasswordURL)
	setString(&config.CookieDomain, c.CookieDomain)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.ResetPasswordTokenValidityDuration != nil {
		config.ResetPasswordTokenValidityDuration = c.ResetPasswordTokenValidityDuration.Duration
	}
	if c.DefaultRoleID != nil {
		config.DefaultRoleID = *c.DefaultRoleID
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

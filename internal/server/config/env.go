package config

import (
	"net/url"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/spf13/viper"
)

// envBindings maps config keys to the environment variables read for them.
var envBindings = map[string]string{
	"endpoint_addr_http":              "ENDPOINT_ADDR",
	"database_dsn":                    "DATABASE_DSN",
	"database_url":                    "DATABASE_URL",
	"secret_key":                      "ACCESS_TOKEN_SECRET",
	"access_token_validity_duration":  "ACCESS_TOKEN_EXPIRY",
	"refresh_token_validity_duration": "REFRESH_TOKEN_EXPIRY",
	"s3_root_user":                    "S3_ROOT_USER",
	"s3_root_password":                "S3_ROOT_PASSWORD",
	"s3_bucket":                       "S3_BUCKET",
	"s3_region":                       "S3_REGION",
	"s3_base_endpoint":                "S3_BASE_ENDPOINT",
	"s3_public_url":                   "S3_PUBLIC_URL",
	"upload_dir":                      "UPLOAD_DIR",
	"upload_timeout":                  "UPLOAD_TIMEOUT",
}

// parseEnv overlays values from the environment. DATABASE_URL is a server URL
// without a database; common.DBName is appended to it. DATABASE_DSN, when set,
// wins over DATABASE_URL.
func parseEnv(config *Config) {
	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}

	str("endpoint_addr_http", &config.EndpointAddrHTTP)
	if v.IsSet("database_url") {
		config.DatabaseDSN = withDatabase(v.GetString("database_url"), common.DBName)
	}
	str("database_dsn", &config.DatabaseDSN)
	str("secret_key", &config.SecretKey)
	str("s3_root_user", &config.S3RootUser)
	str("s3_root_password", &config.S3RootPassword)
	str("s3_bucket", &config.S3Bucket)
	str("s3_region", &config.S3Region)
	str("s3_base_endpoint", &config.S3BaseEndpoint)
	str("s3_public_url", &config.S3PublicURL)
	str("upload_dir", &config.UploadDir)

	if v.IsSet("access_token_validity_duration") {
		config.AccessTokenValidityDuration = v.GetDuration("access_token_validity_duration")
	}
	if v.IsSet("refresh_token_validity_duration") {
		config.RefreshTokenValidityDuration = v.GetDuration("refresh_token_validity_duration")
	}
	if v.IsSet("upload_timeout") {
		config.UploadTimeout = v.GetDuration("upload_timeout")
	}
}

// withDatabase sets the path of a postgres URL to /name, keeping the query.
// Inputs that do not parse as URLs get "/name" appended verbatim.
func withDatabase(raw, name string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return strings.TrimRight(raw, "/") + "/" + name
	}
	u.Path = "/" + name
	return u.String()
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", User: "postgres", DBName: "postboard"},
		Redis:    RedisConfig{Addr: "localhost:6379"},
		JWT:      JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Expire: 24},
		App:      AppConfig{AdminCode: "letmein"},
		Storage:  StorageConfig{Driver: "oss", Bucket: "post-media"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "default secret", mutate: func(c *Config) { c.JWT.Secret = "your_super_secret_key" }, wantErr: "secure JWT secret"},
		{name: "short secret", mutate: func(c *Config) { c.JWT.Secret = "short" }, wantErr: "at least 32"},
		{name: "missing db", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "database configuration"},
		{name: "missing redis", mutate: func(c *Config) { c.Redis.Addr = "" }, wantErr: "redis address"},
		{name: "missing admin code", mutate: func(c *Config) { c.App.AdminCode = "" }, wantErr: "admin code"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Driver = "ftp" }, wantErr: "storage driver"},
		{name: "s3 storage", mutate: func(c *Config) { c.Storage.Driver = "s3" }},
		{name: "missing bucket", mutate: func(c *Config) { c.Storage.Bucket = "" }, wantErr: "bucket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

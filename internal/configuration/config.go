package configuration

import (
	"github.com/BurntSushi/toml"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/pkg/errors"
	"time"
)

type Config struct {
	ServerAddress  string
	DatabaseURI    string
	RedisAddress   string
	RedisPassword  string
	DataDir        string
	FCMKey         string
	SweepInterval  time.Duration
	SchemeCacheTTL time.Duration
	LogToFile      bool
	LogDebug       bool
	LogInfo        bool
	LogError       bool
	AuthSecretKey  jwk.Key
}

type tomlConfig struct {
	ServerAddress  string `toml:"server_address"`
	DatabaseURI    string `toml:"database_uri"`
	RedisAddress   string `toml:"redis_address"`
	RedisPassword  string `toml:"redis_password"`
	DataDir        string `toml:"data_dir"`
	FCMKey         string `toml:"fcm_key"`
	SweepInterval  string `toml:"sweep_interval"`
	SchemeCacheTTL string `toml:"scheme_cache_ttl"`
	LogToFile      bool   `toml:"log_to_file"`
	LogDebug       bool   `toml:"log_debug_enabled"`
	LogInfo        bool   `toml:"log_info_enabled"`
	LogError       bool   `toml:"log_error_enabled"`
	AuthSecretKey  string `toml:"auth_secret_key"`
}

func GetConfig(path string) (*Config, error) {
	var tc tomlConfig
	_, err := toml.DecodeFile(path, &tc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode toml file with path: %s", path)
	}

	if tc.ServerAddress == "" {
		tc.ServerAddress = "localhost:8888"
	}

	if tc.DatabaseURI == "" {
		tc.DatabaseURI = "mongodb://localhost:27017"
	}

	if tc.RedisAddress == "" {
		tc.RedisAddress = "localhost:6379"
	}

	if tc.DataDir == "" {
		tc.DataDir = "data"
	}

	if tc.SweepInterval == "" {
		return nil, errors.New("sweep_interval is not set")
	}
	sweepInterval, err := time.ParseDuration(tc.SweepInterval)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse sweep_interval: %s", path)
	}
	if sweepInterval < 15*time.Second {
		return nil, errors.Errorf("sweep_interval too short (%v), minimum interval: 15s", sweepInterval)
	}

	schemeCacheTTL := 5 * time.Minute
	if tc.SchemeCacheTTL != "" {
		schemeCacheTTL, err = time.ParseDuration(tc.SchemeCacheTTL)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse scheme_cache_ttl: %s", path)
		}
	}

	if tc.AuthSecretKey == "" {
		return nil, errors.New("auth_secret_key is not set")
	}

	authSecretKey, err := jwk.FromRaw([]byte(tc.AuthSecretKey))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key from auth_secret_key")
	}

	return &Config{
		ServerAddress:  tc.ServerAddress,
		DatabaseURI:    tc.DatabaseURI,
		RedisAddress:   tc.RedisAddress,
		RedisPassword:  tc.RedisPassword,
		DataDir:        tc.DataDir,
		FCMKey:         tc.FCMKey,
		SweepInterval:  sweepInterval,
		SchemeCacheTTL: schemeCacheTTL,
		LogToFile:      tc.LogToFile,
		LogDebug:       tc.LogDebug,
		LogInfo:        tc.LogInfo,
		LogError:       tc.LogError,
		AuthSecretKey:  authSecretKey,
	}, nil
}

package server

import (
	"coinloyalty/internal/client"
	"coinloyalty/internal/database"
	"coinloyalty/internal/storage"
	"github.com/go-redis/redis/v9"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"time"
)

type Server struct {
	DB             database.Database
	Client         client.Client
	Cache          *redis.Client
	Storage        storage.FileStorage
	Logger         logger
	AuthSecretKey  jwk.Key
	SchemeCacheTTL time.Duration
}

type logger interface {
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

package app

import (
	httpMW "github.com/studyarc/resourcebank-backend/internal/http/middleware"
	"github.com/studyarc/resourcebank-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),
	}
}

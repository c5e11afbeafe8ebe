package app

import (
	"fmt"

	"github.com/yungbote/studypact-backend/internal/http/middleware"
	"github.com/yungbote/studypact-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, cfg Config) (Middleware, error) {
	log.Info("Wiring middleware...")
	auth, err := middleware.NewAuthMiddleware(log, cfg.JWTSecret)
	if err != nil {
		return Middleware{}, fmt.Errorf("init auth middleware: %w", err)
	}
	return Middleware{Auth: auth}, nil
}

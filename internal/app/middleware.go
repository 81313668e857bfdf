package app

import (
	"fmt"

	"github.com/newomen/newme-backend/internal/http/middleware"
	"github.com/newomen/newme-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *middleware.AuthMiddleware
}

func wireMiddleware(log *logger.Logger) (Middleware, error) {
	log.Info("Wiring middleware...")
	auth, err := middleware.NewAuthMiddleware(log)
	if err != nil {
		return Middleware{}, fmt.Errorf("init auth middleware: %w", err)
	}
	return Middleware{Auth: auth}, nil
}

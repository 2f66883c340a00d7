// internal/app/features/systemusers/handler.go
package systemusers

import (
	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"go.uber.org/zap"
)

type Handler struct {
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs the admin account-management handler. The
// listing itself lives in the backend; the handler drives it through the
// browser's controller.
func NewHandler(errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:    logger,
		ErrLog: errLog,
	}
}

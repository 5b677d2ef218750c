package handlers

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Error bodies are {"error": "..."} or, for field validation, {"errors": [...]}.

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, gin.H{"error": message})
}

func RespondValidation(ctx *gin.Context, fields []FieldError) {
	ctx.JSON(http.StatusBadRequest, gin.H{"errors": fields})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

// RespondInternal logs the cause with the request id and sends a generic body.
// The user id is added by the logger from the request context.
func RespondInternal(ctx *gin.Context, log *slog.Logger, op string, err error) {
	if log == nil {
		log = slog.Default()
	}

	log.ErrorContext(ctx.Request.Context(), op+" failed",
		"err", err,
		"request_id", requestIDFrom(ctx),
	)

	RespondError(ctx, http.StatusInternalServerError, "Internal server error")
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(middlewares.CtxRequestID)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

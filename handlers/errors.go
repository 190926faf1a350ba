package handlers

import (
	"context"
	"errors"
	"net/http"

	"bitbucket.org/mmdatafocus/shop_backend/config"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("shop-backend")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name)
}

// RespondError maps the error taxonomy onto HTTP statuses. Authorization
// failures are 401 when no principal was resolved at all, 403 otherwise.
func RespondError(c *gin.Context, err error) {
	var (
		notFound          *utils.NotFoundError
		validation        *utils.ValidationError
		businessRule      *utils.BusinessRuleError
		insufficientStock *utils.InsufficientStockError
		authorization     *utils.AuthorizationError
		integrity         *utils.IntegrityError
	)

	switch {
	case errors.As(err, &notFound) || errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.As(err, &insufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{
			"detail":    insufficientStock.Error(),
			"available": insufficientStock.Available,
		})
	case errors.As(err, &validation) || errors.As(err, &businessRule):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.As(err, &authorization):
		status := http.StatusForbidden
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"detail": err.Error()})
	case errors.As(err, &integrity):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	default:
		config.LogError(config.GetLogger(), "handlers", "RespondError", c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
	}
}

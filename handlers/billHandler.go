package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"bitbucket.org/mmdatafocus/shop_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateBill(c *gin.Context) {
	ctx, span := startSpan(c.Request.Context(), "CreateBill")
	defer span.End()

	var input models.NewBill
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	bill, err := models.CreateBill(ctx, &input)
	if err != nil {
		RespondError(c, err)
		return
	}

	// Notification runs detached from the request lifecycle. Only the
	// correlation id is carried over for log continuity.
	notifyCtx := context.Background()
	if correlationId, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		notifyCtx = utils.SetCorrelationIdInContext(notifyCtx, correlationId)
	}
	go workflow.NotifyBillCreated(notifyCtx, bill)

	c.JSON(http.StatusCreated, bill)
}

func GetMyBills(c *gin.Context) {
	bills, err := models.GetMyBills(c.Request.Context(), queryInt(c, "skip", 0), queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func GetAllBills(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	var statusFilter *string
	if raw := c.Query("status_filter"); raw != "" {
		statusFilter = &raw
	}
	bills, err := models.GetAllBills(ctx, statusFilter, queryInt(c, "skip", 0), queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

func GetBillSummary(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	summary, err := models.GetBillSummary(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func ExportBillSummary(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	data, err := models.ExportBillSummaryXLSX(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	fileName := fmt.Sprintf("bill-summary-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func GetBillById(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	bill, err := models.GetBill(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/gin-gonic/gin"
)

type setStockRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func CreateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	product, err := models.CreateProduct(ctx, &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func GetProducts(c *gin.Context) {
	var categoryId *int
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			RespondError(c, &utils.ValidationError{Message: "invalid category_id"})
			return
		}
		categoryId = &id
	}
	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			RespondError(c, &utils.ValidationError{Message: "invalid is_active"})
			return
		}
		isActive = &active
	}

	products, err := models.GetProducts(c.Request.Context(), categoryId, isActive, queryInt(c, "skip", 0), queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func GetLowStockProducts(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	products, err := models.GetLowStockProducts(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func GetStockAlerts(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	alerts, err := models.GetStockAlerts(ctx)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func GetProductById(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func UpdateProduct(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var input models.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	product, err := models.UpdateProduct(ctx, id, &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func SetProductStock(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	var input setStockRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	product, err := models.SetProductStock(ctx, id, *input.Quantity)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	if _, err := models.DeleteProduct(ctx, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

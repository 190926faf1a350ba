package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/gin-gonic/gin"
)

func pathId(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, &utils.ValidationError{Message: "invalid id"}
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return v
}

func CreateCategory(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := utils.RequireAdmin(ctx); err != nil {
		RespondError(c, err)
		return
	}

	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	category, err := models.CreateCategory(ctx, &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func GetCategories(c *gin.Context) {
	categories, err := models.GetCategories(c.Request.Context(), queryInt(c, "skip", 0), queryInt(c, "limit", 100))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func GetCategoryById(c *gin.Context) {
	id, err := pathId(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	category, err := models.GetCategory(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func UpdateCategory(c *gin.Context) {
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
	var input models.NewCategory
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	category, err := models.UpdateCategory(ctx, id, &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func DeleteCategory(c *gin.Context) {
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
	if _, err := models.DeleteCategory(ctx, id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

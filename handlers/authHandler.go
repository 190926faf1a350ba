package handlers

import (
	"net/http"

	"bitbucket.org/mmdatafocus/shop_backend/models"
	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=admin client"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	Username string `json:"username"`
}

// Register creates a client account.
func Register(c *gin.Context) {
	var input models.NewClient
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	client, err := models.CreateClient(c.Request.Context(), &input)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

// Login issues a JWT for an admin or a client.
func Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, &utils.ValidationError{Message: err.Error()})
		return
	}

	ctx := c.Request.Context()
	var (
		userId   int
		username string
	)
	if input.Role == utils.RoleAdmin {
		admin, err := models.AuthenticateAdmin(ctx, input.Username, input.Password)
		if err != nil {
			RespondError(c, err)
			return
		}
		userId, username = admin.ID, admin.Username
	} else {
		client, err := models.AuthenticateClient(ctx, input.Username, input.Password)
		if err != nil {
			RespondError(c, err)
			return
		}
		userId, username = client.ID, client.Username
	}

	token, err := utils.JwtGenerate(userId, input.Role)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, Role: input.Role, Username: username})
}

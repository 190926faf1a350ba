package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/shop_backend/utils"
	"github.com/gin-gonic/gin"
)

func respond(t *testing.T, err error, userId int) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if userId > 0 {
		c.Request = c.Request.WithContext(utils.SetUserIdInContext(c.Request.Context(), userId))
	}
	RespondError(c, err)
	return w
}

func TestRespondError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		userId int
		status int
	}{
		{"not found", &utils.NotFoundError{Resource: "product", Id: 1}, 1, http.StatusNotFound},
		{"record not found sentinel", utils.ErrorRecordNotFound, 1, http.StatusNotFound},
		{"validation", &utils.ValidationError{Message: "bad input"}, 1, http.StatusBadRequest},
		{"business rule", &utils.BusinessRuleError{Message: "not allowed"}, 1, http.StatusBadRequest},
		{"insufficient stock", &utils.InsufficientStockError{ProductId: 1, ProductName: "Keyboard", Available: 2}, 1, http.StatusBadRequest},
		{"authorization without principal", &utils.AuthorizationError{Message: "invalid credentials"}, 0, http.StatusUnauthorized},
		{"authorization with principal", &utils.AuthorizationError{Message: "admins only"}, 1, http.StatusForbidden},
		{"integrity", &utils.IntegrityError{Err: errors.New("duplicate")}, 1, http.StatusConflict},
		{"unknown", errors.New("boom"), 1, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := respond(t, tc.err, tc.userId)
			if w.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, w.Code)
			}
		})
	}
}

func TestRespondError_InsufficientStockIncludesAvailable(t *testing.T) {
	w := respond(t, &utils.InsufficientStockError{ProductId: 1, ProductName: "Keyboard", Available: 2}, 1)
	body := w.Body.String()
	if !strings.Contains(body, `"available":2`) || !strings.Contains(body, "Keyboard") {
		t.Fatalf("unexpected body: %s", body)
	}
}

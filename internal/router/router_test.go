package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/config"
	"github.com/stemsi/websurvey-backend/internal/handler"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/service"
)

// tokenAuth accepts the tokens "admin" and "respondent".
type tokenAuth struct{}

func (tokenAuth) ValidateToken(tokenStr string) (*service.Claims, error) {
	switch tokenStr {
	case "admin":
		return &service.Claims{UserID: uuid.New(), Role: model.RoleAdmin}, nil
	case "respondent":
		return &service.Claims{UserID: uuid.New(), Role: model.RoleRespondent}, nil
	}
	return nil, errors.New("invalid")
}

func (tokenAuth) ValidateLoginSession(context.Context, uuid.UUID, string) error { return nil }

type emptyData struct{}

func (emptyData) GetCombinedData(context.Context, uuid.UUID) (service.CombinedRow, error) {
	return nil, service.ErrUserNotFound
}
func (emptyData) GetAllCombinedData(context.Context) ([]service.CombinedRow, error) {
	return []service.CombinedRow{}, nil
}
func (emptyData) ExportXLSX(context.Context, io.Writer) error { return nil }

func TestRouteGuards(t *testing.T) {
	log := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := SetupRouter(ctx, tokenAuth{}, &Handlers{
		Health:       handler.NewHealthHandler(nil, log),
		CombinedData: handler.NewCombinedDataHandler(emptyData{}, log),
	}, &config.Config{GinMode: gin.TestMode})

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{name: "health is public", path: "/health", want: http.StatusOK},
		{name: "api needs a token", path: "/api/v1/combined-data", want: http.StatusUnauthorized},
		{name: "bad token", path: "/api/v1/combined-data", token: "forged", want: http.StatusUnauthorized},
		{name: "respondent is not admin", path: "/api/v1/combined-data", token: "respondent", want: http.StatusForbidden},
		{name: "admin", path: "/api/v1/combined-data", token: "admin", want: http.StatusOK},
		{name: "unknown user", path: "/api/v1/combined-data/" + uuid.New().String(), token: "admin", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
			if tt.token != "" && w.Code == http.StatusOK && w.Header().Get("Cache-Control") == "" {
				t.Error("API response is cacheable")
			}
		})
	}
}

package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/websurvey-backend/internal/model"
	"github.com/stemsi/websurvey-backend/internal/response"
	"github.com/stemsi/websurvey-backend/internal/service"
	"github.com/stemsi/websurvey-backend/internal/validator"
)

// UniqueCodeManager manages invitation codes.
type UniqueCodeManager interface {
	Create(ctx context.Context, req model.CreateUniqueCodeRequest) service.Result
	CreateMany(ctx context.Context, reqs []model.CreateUniqueCodeRequest) service.Result
	Delete(ctx context.Context, kodeUnik string) service.Result
	Validate(ctx context.Context, kodeUnik string) service.Result
}

// UniqueCodeHandler handles unique survey code endpoints.
type UniqueCodeHandler struct {
	codes UniqueCodeManager
}

// NewUniqueCodeHandler creates a new UniqueCodeHandler.
func NewUniqueCodeHandler(codes UniqueCodeManager) *UniqueCodeHandler {
	return &UniqueCodeHandler{codes: codes}
}

// Create godoc
// POST /api/v1/survey/unique-code
func (h *UniqueCodeHandler) Create(c *gin.Context) {
	var req model.CreateUniqueCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	req.KodeUnik = strings.TrimSpace(req.KodeUnik)
	writeResult(c, h.codes.Create(c.Request.Context(), req), http.StatusCreated)
}

// CreateMany godoc
// POST /api/v1/survey/unique-code/bulk
// Body is a JSON array of {nama_responden, kode_unik}.
func (h *UniqueCodeHandler) CreateMany(c *gin.Context) {
	var reqs []model.CreateUniqueCodeRequest
	if fields := validator.Bind(c, &reqs); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	for i := range reqs {
		reqs[i].KodeUnik = strings.TrimSpace(reqs[i].KodeUnik)
	}
	writeResult(c, h.codes.CreateMany(c.Request.Context(), reqs), http.StatusCreated)
}

// Delete godoc
// DELETE /api/v1/survey/unique-code/:kode_unik
func (h *UniqueCodeHandler) Delete(c *gin.Context) {
	writeResult(c, h.codes.Delete(c.Request.Context(), c.Param("kode_unik")), http.StatusOK)
}

// Validate godoc
// GET /api/v1/survey/unique-code/:kode_unik
func (h *UniqueCodeHandler) Validate(c *gin.Context) {
	writeResult(c, h.codes.Validate(c.Request.Context(), c.Param("kode_unik")), http.StatusOK)
}

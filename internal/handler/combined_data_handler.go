package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/websurvey-backend/internal/response"
	"github.com/stemsi/websurvey-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CombinedDataProvider builds the flattened reporting rows.
type CombinedDataProvider interface {
	GetCombinedData(ctx context.Context, userID uuid.UUID) (service.CombinedRow, error)
	GetAllCombinedData(ctx context.Context) ([]service.CombinedRow, error)
	ExportXLSX(ctx context.Context, w io.Writer) error
}

// CombinedDataHandler serves the admin reporting endpoints.
type CombinedDataHandler struct {
	data CombinedDataProvider
	log  zerolog.Logger
}

// NewCombinedDataHandler creates a new CombinedDataHandler.
func NewCombinedDataHandler(data CombinedDataProvider, log zerolog.Logger) *CombinedDataHandler {
	return &CombinedDataHandler{
		data: data,
		log:  log.With().Str("component", "combined_data_handler").Logger(),
	}
}

// GetAll godoc
// GET /api/v1/combined-data
func (h *CombinedDataHandler) GetAll(c *gin.Context) {
	rows, err := h.data.GetAllCombinedData(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Combined data failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, rows)
}

// GetByUser godoc
// GET /api/v1/combined-data/:user_id
func (h *CombinedDataHandler) GetByUser(c *gin.Context) {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return
	}

	row, err := h.data.GetCombinedData(c.Request.Context(), userID)
	if errors.Is(err, service.ErrUserNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID.String()).Msg("Combined data failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, row)
}

// Export godoc
// GET /api/v1/combined-data/export
// Downloads every combined row as an .xlsx workbook.
func (h *CombinedDataHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.data.ExportXLSX(c.Request.Context(), &buf); err != nil {
		h.log.Error().Err(err).Msg("Combined data export failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	filename := fmt.Sprintf("combined-data-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the standardized API response envelope. Error carries the
// diagnostic text of an unexpected fault and is omitted otherwise.
type Response struct {
	Success  bool              `json:"success"`
	Data     interface{}       `json:"data,omitempty"`
	Message  string            `json:"message,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     ErrCode           `json:"code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Metadata Metadata          `json:"metadata"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ────────────────────────────────────────────────────────────────────────────
// Helper builders
// ────────────────────────────────────────────────────────────────────────────

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success:  true,
		Data:     data,
		Metadata: buildMetadata(c),
	})
}

// Outcome sends a service outcome as-is: success flag, optional data,
// message and fault diagnostic.
func Outcome(c *gin.Context, statusCode int, success bool, data interface{}, message, diagnostic string) {
	r := Response{
		Success:  success,
		Data:     data,
		Message:  message,
		Error:    diagnostic,
		Metadata: buildMetadata(c),
	}
	if !success {
		r.Code = codeForStatus(statusCode)
	}
	c.JSON(statusCode, r)
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	c.JSON(statusCode, Response{
		Message:  GetMessage(code),
		Code:     code,
		Metadata: buildMetadata(c),
	})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, Response{
		Message:  GetMessage(code),
		Code:     code,
		Fields:   fields,
		Metadata: buildMetadata(c),
	})
}

// AbortFail aborts the middleware chain and sends an error response.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	c.AbortWithStatusJSON(statusCode, Response{
		Message:  GetMessage(code),
		Code:     code,
		Metadata: buildMetadata(c),
	})
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func codeForStatus(statusCode int) ErrCode {
	switch {
	case statusCode == 404:
		return ErrNotFound
	case statusCode >= 500:
		return ErrInternal
	default:
		return ErrSurveyRejected
	}
}

func buildMetadata(c *gin.Context) Metadata {
	reqID, _ := c.Get(ContextKeyRequestID)
	id, ok := reqID.(string)
	if !ok || id == "" {
		id = uuid.New().String() // Fallback if middleware not applied
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

package service

// Reason classifies a failed Result so the transport can pick a status code.
type Reason uint8

const (
	ReasonNone Reason = iota
	// ReasonNotFound: the entity does not exist or is not owned by the caller.
	ReasonNotFound
	// ReasonRejected: a business rule refused the call (state, duplicate, validation).
	ReasonRejected
	// ReasonFault: an unexpected storage or infrastructure failure.
	ReasonFault
)

// Result is the uniform outcome of every session and evaluation operation.
// Error is only set for faults.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  Reason `json:"-"`
}

// Messages returned in failed results.
const (
	MsgSessionExists              = "User already has a survey session. Please complete or delete the existing session first."
	MsgSessionNotFound            = "Survey session not found"
	MsgActiveSessionNotFound      = "Active survey session not found"
	MsgSessionNotFoundOrCompleted = "Survey session not found or already completed"
	MsgSessionUpdateFailed        = "Failed to update session"
	MsgSessionDeleted             = "Survey session deleted successfully"
	MsgDuplicateQuestionCode      = "Duplicate question_code in responses"
	MsgInvalidTimeConsumed        = "karakteristik and survei must be non-negative numbers"

	MsgEvaluationExists              = "This survey session already has an evaluation"
	MsgEvaluationNotFound            = "Evaluation not found"
	MsgEvaluationNotFoundForSession  = "Survey evaluation not found for this session"
	MsgEvaluationNotFoundOrCompleted = "Evaluation not found or already completed"
	MsgEvaluationDeleted             = "Evaluation deleted successfully"
)

func ok(data any) Result {
	return Result{Success: true, Data: data}
}

func okMessage(msg string) Result {
	return Result{Success: true, Message: msg}
}

func notFound(msg string) Result {
	return Result{Message: msg, Reason: ReasonNotFound}
}

func rejected(msg string, data any) Result {
	return Result{Message: msg, Data: data, Reason: ReasonRejected}
}

func fault(msg string, err error) Result {
	diag := "Unknown error"
	if err != nil {
		diag = err.Error()
	}
	return Result{Message: msg, Error: diag, Reason: ReasonFault}
}

// Messages returned by the unique code service.
const (
	MsgUniqueCodeExists     = "Unique code already exists"
	MsgUniqueCodeNotFound   = "Unique code not found"
	MsgUniqueCodeInvalid    = "Unique code is not valid"
	MsgUniqueCodeBulkEmpty  = "Input must be a non-empty array"
	MsgUniqueCodeBulkPartly = "Some unique codes already exist"
)

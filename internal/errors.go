package internal

import "errors"

// Precondition violations reported to the user. These abort the operation
// without mutating the document.
var (
	ErrSessionActive   = errors.New("a training session is already running")
	ErrNoActiveSession = errors.New("no training session is running")
	ErrNoPendingResult = errors.New("no session result is awaiting confirmation")
	ErrNotFound        = errors.New("not found")
)

type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

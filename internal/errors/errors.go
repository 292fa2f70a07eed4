package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

/**
 * Error taxonomy for the math solver pipeline
 *
 * Every pipeline stage returns a *PipelineError; the HTTP boundary maps the
 * code to a status and renders Message as the user-visible error string.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorMissingImage ErrorCode = "MISSING_IMAGE"
	ErrorInvalidImage ErrorCode = "INVALID_IMAGE"
	ErrorEmptyText    ErrorCode = "EMPTY_TEXT"

	// Processing errors
	ErrorOCRFailed ErrorCode = "OCR_FAILED"

	// Configuration errors
	ErrorConfig ErrorCode = "CONFIG_ERROR"

	// Upstream errors
	ErrorUpstreamNetwork   ErrorCode = "UPSTREAM_NETWORK"
	ErrorUpstreamStatus    ErrorCode = "UPSTREAM_STATUS"
	ErrorUpstreamMalformed ErrorCode = "UPSTREAM_MALFORMED"
)

// PipelineError represents a structured pipeline error
type PipelineError struct {
	Code      ErrorCode
	Message   string
	RequestID string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is matches any *PipelineError carrying the same code.
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithRequestID stamps the request ID unless one is already set.
func (e *PipelineError) WithRequestID(requestID string) *PipelineError {
	if e.RequestID == "" {
		e.RequestID = requestID
	}
	return e
}

// IsUpstream reports whether the code belongs to the upstream family.
func (c ErrorCode) IsUpstream() bool {
	switch c {
	case ErrorUpstreamNetwork, ErrorUpstreamStatus, ErrorUpstreamMalformed:
		return true
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrMissingImage = &PipelineError{Code: ErrorMissingImage}
	ErrInvalidImage = &PipelineError{Code: ErrorInvalidImage}
	ErrEmptyText    = &PipelineError{Code: ErrorEmptyText}
	ErrOCRFailed    = &PipelineError{Code: ErrorOCRFailed}
	ErrConfig       = &PipelineError{Code: ErrorConfig}
)

// Factory functions for common errors

func NewMissingImageError() *PipelineError {
	return &PipelineError{
		Code:      ErrorMissingImage,
		Message:   "请上传图片文件",
		Timestamp: time.Now(),
	}
}

func NewInvalidImageError(cause error) *PipelineError {
	msg := "无效的图片文件"
	if cause != nil {
		msg = fmt.Sprintf("无效的图片文件: %v", cause)
	}
	return &PipelineError{
		Code:      ErrorInvalidImage,
		Message:   msg,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewEmptyTextError(lineCount int) *PipelineError {
	return &PipelineError{
		Code:      ErrorEmptyText,
		Message:   "未识别到题目文本，请上传清晰的图片",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"ocr_lines": lineCount,
		},
	}
}

func NewOCRFailedError(engine string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR识别失败: %v", cause),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"ocr_engine": engine,
		},
		Cause: cause,
	}
}

func NewConfigError(message string) *PipelineError {
	return &PipelineError{
		Code:      ErrorConfig,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func NewUpstreamNetworkError(cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorUpstreamNetwork,
		Message:   fmt.Sprintf("API调用失败: %v. 响应内容: 无响应内容", cause),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewUpstreamStatusError(statusCode int, body string) *PipelineError {
	if body == "" {
		body = "无响应内容"
	}
	return &PipelineError{
		Code:      ErrorUpstreamStatus,
		Message:   fmt.Sprintf("API调用失败: 状态码 %d. 响应内容: %s", statusCode, body),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"status_code": statusCode,
		},
	}
}

func NewUpstreamMalformedError(cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorUpstreamMalformed,
		Message:   fmt.Sprintf("处理API响应失败: %v", cause),
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

// HTTPStatus maps an error to the status code returned to the client.
// Anything that is not a *PipelineError is an internal failure.
func HTTPStatus(err error) int {
	var pe *PipelineError
	if !stderrors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Code {
	case ErrorMissingImage, ErrorInvalidImage, ErrorEmptyText:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show to the caller.
func PublicMessage(err error) string {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Message
	}
	return fmt.Sprintf("服务内部错误: %v", err)
}

// ToMap converts error to map for structured log fields
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	if e.RequestID != "" {
		result["request_id"] = e.RequestID
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}

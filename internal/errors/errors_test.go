package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing image", NewMissingImageError(), http.StatusBadRequest},
		{"invalid image", NewInvalidImageError(fmt.Errorf("bad header")), http.StatusBadRequest},
		{"empty text", NewEmptyTextError(0), http.StatusBadRequest},
		{"ocr failed", NewOCRFailedError("tesseract", fmt.Errorf("crash")), http.StatusInternalServerError},
		{"config", NewConfigError("missing key"), http.StatusInternalServerError},
		{"network", NewUpstreamNetworkError(fmt.Errorf("dial tcp")), http.StatusInternalServerError},
		{"status", NewUpstreamStatusError(502, "bad gateway"), http.StatusInternalServerError},
		{"malformed", NewUpstreamMalformedError(fmt.Errorf("eof")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("stage: %w", NewEmptyTextError(3)), http.StatusBadRequest},
		{"plain", fmt.Errorf("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewInvalidImageError(nil))
	if !stderrors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected match on code")
	}
	if stderrors.Is(err, ErrEmptyText) {
		t.Fatalf("unexpected match on different code")
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewOCRFailedError("tesseract", cause)
	if !stderrors.Is(err, cause) {
		t.Fatalf("cause not reachable through Unwrap")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Fatalf("Error() should mention the cause: %q", err.Error())
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NewEmptyTextError(0)); got != "未识别到题目文本，请上传清晰的图片" {
		t.Fatalf("unexpected message %q", got)
	}
	if got := PublicMessage(NewUpstreamStatusError(500, "")); !strings.Contains(got, "无响应内容") {
		t.Fatalf("empty upstream body should use placeholder: %q", got)
	}
	if got := PublicMessage(fmt.Errorf("boom")); got != "服务内部错误: boom" {
		t.Fatalf("unexpected fallback %q", got)
	}
}

func TestToMapAndRequestID(t *testing.T) {
	err := NewUpstreamStatusError(429, "slow down").WithRequestID("req-9")
	err.WithRequestID("ignored")

	m := err.ToMap()
	if m["error_code"] != string(ErrorUpstreamStatus) || m["status_code"] != 429 || m["request_id"] != "req-9" {
		t.Fatalf("unexpected map %v", m)
	}
	if !ErrorUpstreamStatus.IsUpstream() || ErrorConfig.IsUpstream() {
		t.Fatalf("IsUpstream classification is wrong")
	}
}

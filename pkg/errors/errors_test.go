package errors

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("sets category, retryable, and http status from kind", func(t *testing.T) {
		err := New(KindNotFound, "object missing")
		if err.Category != CategoryNotFound {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNotFound)
		}
		if err.Retryable {
			t.Error("NotFound should not be retryable by default")
		}
		if err.HTTPStatus != 404 {
			t.Errorf("HTTPStatus = %d, want 404", err.HTTPStatus)
		}
		if err.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("transport failures are retryable", func(t *testing.T) {
		err := New(KindTransportFailure, "ssh dial failed")
		if !err.Retryable {
			t.Error("TransportFailure should be retryable by default")
		}
		if err.HTTPStatus != 502 {
			t.Errorf("HTTPStatus = %d, want 502", err.HTTPStatus)
		}
	})

	t.Run("invalid request maps to 400", func(t *testing.T) {
		err := New(KindInvalidRequest, "bad version id")
		if err.HTTPStatus != 400 {
			t.Errorf("HTTPStatus = %d, want 400", err.HTTPStatus)
		}
		if err.Retryable {
			t.Error("InvalidRequest should not be retryable")
		}
	})
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with component and operation",
			err: &Error{
				Kind:      KindNotFound,
				Component: "objectstore",
				Operation: "HeadObject",
				Message:   "key not found",
			},
			want: "[objectstore:HeadObject] NOT_FOUND: key not found",
		},
		{
			name: "with component only",
			err: &Error{
				Kind:      KindInvalidRequest,
				Component: "version",
				Message:   "unknown version id",
			},
			want: "[version] INVALID_REQUEST: unknown version id",
		},
		{
			name: "minimal error",
			err: &Error{
				Kind:    KindTransportFailure,
				Message: "connection reset",
			},
			want: "TRANSPORT_FAILURE: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("underlying cause")
	err := Wrap(KindTransportFailure, "dial failed", cause)

	if unwrapped := err.Unwrap(); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

func TestError_Is(t *testing.T) {
	t.Parallel()

	err1 := New(KindNotFound, "not found")
	err2 := New(KindNotFound, "different message")
	err3 := New(KindInvalidRequest, "invalid")
	stdErr := errors.New("standard error")

	if !errors.Is(err1, err2) {
		t.Error("errors with the same kind should match with errors.Is")
	}
	if errors.Is(err1, err3) {
		t.Error("errors with different kinds should not match")
	}
	if err1.Is(stdErr) {
		t.Error("Error should not match a plain standard error")
	}
}

func TestError_JSON(t *testing.T) {
	t.Parallel()

	err := New(KindInvalidRequest, "invalid setting").WithComponent("config")

	var parsed map[string]interface{}
	if parseErr := json.Unmarshal([]byte(err.JSON()), &parsed); parseErr != nil {
		t.Fatalf("JSON() returned invalid JSON: %v", parseErr)
	}
	if parsed["kind"] != string(KindInvalidRequest) {
		t.Errorf("JSON kind = %v, want %v", parsed["kind"], KindInvalidRequest)
	}
	if parsed["message"] != "invalid setting" {
		t.Errorf("JSON message = %v, want %q", parsed["message"], "invalid setting")
	}
}

func TestIsKind(t *testing.T) {
	t.Parallel()

	err := New(KindSnapshotUnavailable, "mount missing")
	if !IsKind(err, KindSnapshotUnavailable) {
		t.Error("IsKind should match the error's own kind")
	}
	if IsKind(err, KindNotFound) {
		t.Error("IsKind should not match a different kind")
	}
	if IsKind(errors.New("plain"), KindNotFound) {
		t.Error("IsKind should return false for a non-*Error")
	}
}

func TestWithDetailAndOperation(t *testing.T) {
	t.Parallel()

	err := New(KindNotFound, "missing").
		WithOperation("ListObjects").
		WithDetail("bucket", "photos").
		WithComponent("objectstore")

	if err.Operation != "ListObjects" {
		t.Errorf("Operation = %q, want ListObjects", err.Operation)
	}
	if err.Details["bucket"] != "photos" {
		t.Errorf("Details[bucket] = %v, want photos", err.Details["bucket"])
	}
	if err.Component != "objectstore" {
		t.Errorf("Component = %q, want objectstore", err.Component)
	}
}

package refund_repo

import (
	"testing"
	"time"

	"backoffice/internal/core/apperror"
	"backoffice/internal/core/id"
)

func TestCursorRoundTrip(t *testing.T) {
	in := cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		ID:        id.New(),
	}

	out, err := decodeCursor(encodeCursor(in))
	if err != nil {
		t.Fatalf("decodeCursor failed: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) {
		t.Errorf("created_at mismatch\nwant: %v\ngot:  %v", in.CreatedAt, out.CreatedAt)
	}
	if out.ID != in.ID {
		t.Errorf("id mismatch\nwant: %s\ngot:  %s", in.ID, out.ID)
	}
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, bad := range []string{"not-base64!!", "bm90LWpzb24"} {
		_, err := decodeCursor(bad)
		if err == nil {
			t.Fatalf("expected error for %q", bad)
		}
		if appErr, ok := apperror.AsAppError(err); !ok || appErr.Code != apperror.CodeValidation {
			t.Errorf("expected validation error for %q, got %v", bad, err)
		}
	}
}

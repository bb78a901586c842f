package fault

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindMalformedRequest, "Malformed Request"},
		{KindClosed, "Closed"},
		{KindValidation, "Validation Error"},
		{KindPersistence, "Persistence Failure"},
		{KindConnectTimeout, "Connect Timeout"},
		{KindConnectAborted, "Connect Aborted"},
		{KindSync, "Sync Failure"},
		{KindRadio, "Radio Error"},
		{Kind(99), "Kind(99)"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewPersistence("credentials.save", errors.New("disk full"))

	msg := err.Error()
	if !strings.Contains(msg, "credentials.save") {
		t.Errorf("Error() = %q, want op prefix", msg)
	}
	if !strings.Contains(msg, "disk full") {
		t.Errorf("Error() = %q, want cause", msg)
	}
	if !err.Retryable {
		t.Error("persistence errors should be retryable")
	}
}

func TestSentinelMatching(t *testing.T) {
	wrapped := fmt.Errorf("portal: %w", NewPersistence("credentials.save", errors.New("EROFS")))

	if !errors.Is(wrapped, ErrPersistence) {
		t.Error("errors.Is(wrapped, ErrPersistence) = false, want true")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Error("errors.Is(wrapped, ErrValidation) = true, want false")
	}
	if !IsPersistence(wrapped) {
		t.Error("IsPersistence(wrapped) = false, want true")
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"malformed", NewMalformed("bad line"), IsMalformed, true},
		{"closed sentinel", ErrClosed, IsClosed, true},
		{"validation", NewValidation("SSID is required."), IsValidation, true},
		{"timeout", NewConnectTimeout("Home"), IsConnectTimeout, true},
		{"aborted", NewConnectAborted("Home"), IsConnectAborted, true},
		{"sync", NewSync("no reply", nil), IsSync, true},
		{"timeout is not aborted", NewConnectTimeout("Home"), IsConnectAborted, false},
		{"plain error", errors.New("plain"), IsValidation, false},
		{"nil", nil, IsMalformed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(tt.err); got != tt.want {
				t.Errorf("check(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShortMessage(t *testing.T) {
	if got := ShortMessage(NewValidation("SSID is required.")); got != "SSID is required." {
		t.Errorf("ShortMessage(validation) = %q", got)
	}
	if got := ShortMessage(NewPersistence("x", nil)); got != "Save failed." {
		t.Errorf("ShortMessage(persistence) = %q", got)
	}
	if got := ShortMessage(errors.New("other")); got != "other" {
		t.Errorf("ShortMessage(plain) = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	k, ok := KindOf(fmt.Errorf("wrap: %w", NewRadio("ap.start", errors.New("busy"))))
	if !ok || k != KindRadio {
		t.Errorf("KindOf() = %v, %v; want KindRadio, true", k, ok)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf(plain) ok = true, want false")
	}
}

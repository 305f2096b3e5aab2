package jobs

import (
	"errors"
	"testing"
)

func TestRecoverable_NilErrorIsRecoverable(t *testing.T) {
	if !Recoverable(nil) {
		t.Fatal("nil error should be recoverable")
	}
}

func TestRecoverable_JobErrorFlagWins(t *testing.T) {
	if Recoverable(&JobError{Message: "invalid input: bad field", Recoverable: true}) != true {
		t.Fatal("explicit JobError.Recoverable=true should win over message content")
	}
	if Recoverable(&JobError{Message: "connection reset", Recoverable: false}) != false {
		t.Fatal("explicit JobError.Recoverable=false should win over message content")
	}
}

func TestRecoverable_PlainErrorClassifiedByMessage(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"validation failed on field x", false},
		{"invalid input provided", false},
		{"authorization denied", false},
		{"resource not found", false},
		{"access forbidden", false},
		{"connection reset by peer", true},
		{"context deadline exceeded", true},
		{"temporary DNS failure", true},
	}

	for _, c := range cases {
		got := Recoverable(errors.New(c.msg))
		if got != c.want {
			t.Errorf("Recoverable(%q) = %v, want %v", c.msg, got, c.want)
		}
	}
}

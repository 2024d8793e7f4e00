package etl

import (
	"errors"
	"fmt"
	"testing"
)

// TestSchemaErrorMessage pins the operator-facing message: the source comes
// first and the missing columns keep contract order.
func TestSchemaErrorMessage(t *testing.T) {
	t.Parallel()

	err := &SchemaError{Source: "data/transactions.csv", Missing: []string{"amount", "status"}}
	want := "data/transactions.csv: missing required columns: amount, status"
	if got := err.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

// TestParseErrorMessage checks both renderings: with and without a value.
func TestParseErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ParseError
		want string
	}{
		{
			name: "with value",
			err:  &ParseError{Field: "amount", Value: "-5.00", Reason: "must be greater than zero"},
			want: `field amount="-5.00": must be greater than zero`,
		},
		{
			name: "without value",
			err:  &ParseError{Field: "status", Reason: "required value missing"},
			want: "field status: required value missing",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSinkErrorUnwrap verifies the driver error stays reachable through
// errors.Is and that the stage prefixes the message.
func TestSinkErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &SinkError{Stage: "load facts", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false, want true")
	}
	if got, want := err.Error(), "load facts: connection refused"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}

	var sink *SinkError
	if !errors.As(fmt.Errorf("run: %w", err), &sink) {
		t.Fatalf("errors.As through wrapping failed")
	}
	if sink.Stage != "load facts" {
		t.Fatalf("Stage = %q, want %q", sink.Stage, "load facts")
	}
}

package errs_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/artpar/unitwizard/core/errs"
)

func TestError_IsKind(t *testing.T) {
	err := fmt.Errorf("standardize: %w", errs.NoStandards("standardize"))
	if !errors.Is(err, errs.ErrNoStandards) {
		t.Error("errors.Is(wrapped, ErrNoStandards) = false, want true")
	}
	if errors.Is(err, errs.ErrArgument) {
		t.Error("errors.Is(wrapped, ErrArgument) = true, want false")
	}
	if got := errs.KindOf(err); got != errs.ErrNoStandards {
		t.Errorf("KindOf() = %v, want ErrNoStandards", got)
	}
}

func TestError_UnwrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := errs.NotImplementedMethod("convert").Wrap(cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if !strings.HasSuffix(err.Error(), ": boom") {
		t.Errorf("Error() = %q, want cause suffix", err.Error())
	}
}

func TestError_Messages(t *testing.T) {
	tests := []struct {
		err      *errs.Error
		wantCode string
		wantUser string
		wantDev  string
	}{
		{
			errs.Argument("convert", "to_form", "nope"),
			"UW-ERR-ARG-001",
			"Error in argument 'to_form' with value 'nope'.",
			"Argument error in 'convert' for 'to_form'.",
		},
		{
			errs.LibraryWithoutParser("convert", "gonum"),
			"UW-ERR-PARSER-002",
			"Library 'gonum' does not have an associated parser.",
			"Library 'gonum' has no parser in 'convert'.",
		},
		{
			errs.NotImplementedParser("convert", "udunits"),
			"UW-ERR-PARSER-003",
			"Parser for 'udunits' is not implemented.",
			"Parser 'udunits' not implemented in 'convert'.",
		},
		{
			errs.NotImplementedForm("get_form", "[]string"),
			"UW-ERR-FORM-001",
			"The form '[]string' is not implemented.",
			"Form '[]string' not implemented in 'get_form'.",
		},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.wantCode {
			t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
		}
		if got := tt.err.UserMessage(); got != tt.wantUser {
			t.Errorf("UserMessage() = %q, want %q", got, tt.wantUser)
		}
		if got := tt.err.DevMessage(); got != tt.wantDev {
			t.Errorf("DevMessage() = %q, want %q", got, tt.wantDev)
		}
	}
}

func TestError_Detail(t *testing.T) {
	err := errs.NotImplementedMethod("convert").WithDetail("no translator from %s to %s", "gonum", "string")
	if got := err.UserMessage(); got != "no translator from gonum to string" {
		t.Errorf("UserMessage() = %q", got)
	}
}

func TestLabel(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range errs.Kinds() {
		l := errs.Label(k)
		if l == "other" || seen[l] {
			t.Errorf("Label(%v) = %q, want a unique label", k, l)
		}
		seen[l] = true
	}
}

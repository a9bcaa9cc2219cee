// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name:     "operation only",
			err:      &ActionableError{Operation: "update ytdl"},
			expected: "failed to update ytdl",
		},
		{
			name:     "operation with resource",
			err:      &ActionableError{Operation: "load configuration", Resource: "/home/u/.config/ytdl/config.cue"},
			expected: "failed to load configuration: /home/u/.config/ytdl/config.cue",
		},
		{
			name: "operation with resource and cause",
			err: &ActionableError{
				Operation: "load configuration",
				Resource:  "config.cue",
				Cause:     errors.New("file not found"),
			},
			expected: "failed to load configuration: config.cue: file not found",
		},
		{
			name:     "operation with cause only",
			err:      &ActionableError{Operation: "update ytdl", Cause: errors.New("connection refused")},
			expected: "failed to update ytdl: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("permission denied")
	err := &ActionableError{Operation: "update ytdl", Cause: fmt.Errorf("install: %w", sentinel)}

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if (&ActionableError{Operation: "x"}).Unwrap() != nil {
		t.Error("Unwrap() without cause should return nil")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name:     "simple error non-verbose",
			err:      &ActionableError{Operation: "load configuration"},
			contains: []string{"failed to load configuration"},
			excludes: []string{"•", "Error chain:"},
		},
		{
			name: "error with suggestions",
			err: &ActionableError{
				Operation:   "update ytdl",
				Resource:    "/usr/local/bin/ytdl",
				Suggestions: []string{"Run 'sudo ytdl upgrade'", "Reinstall into a directory you own"},
			},
			contains: []string{
				"failed to update ytdl: /usr/local/bin/ytdl",
				"\n\n  • Run 'sudo ytdl upgrade'",
				"\n  • Reinstall into a directory you own",
			},
		},
		{
			name: "error chain in verbose mode",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			verbose:  true,
			contains: []string{"failed to parse config", "Error chain:", "1. syntax error"},
		},
		{
			name: "no error chain in non-verbose",
			err: &ActionableError{
				Operation: "parse config",
				Cause:     errors.New("syntax error"),
			},
			contains: []string{"failed to parse config: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested error chain verbose",
			err: &ActionableError{
				Operation: "update ytdl",
				Cause: &ActionableError{
					Operation: "download latest version",
					Cause:     errors.New("connection reset"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to download latest version: connection reset",
				"2. connection reset",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if !(&ActionableError{Operation: "test", Suggestions: []string{"Try this"}}).HasSuggestions() {
		t.Error("HasSuggestions() should return true when suggestions present")
	}
	if (&ActionableError{Operation: "test"}).HasSuggestions() {
		t.Error("HasSuggestions() should return false when no suggestions")
	}
}

func TestActionableError_Guidance(t *testing.T) {
	stubRender(t)

	got, err := (&ActionableError{Operation: "update ytdl", Issue: PermissionDeniedId}).Guidance("notty")
	if err != nil {
		t.Fatalf("Guidance() error: %v", err)
	}
	if !strings.Contains(got, "No write permission") {
		t.Errorf("Guidance() = %q, want the permission guidance", got)
	}

	if got, err := (&ActionableError{Operation: "x"}).Guidance("notty"); got != "" || err != nil {
		t.Errorf("Guidance() without issue = %q, %v; want empty", got, err)
	}
	if _, err := (&ActionableError{Operation: "x", Issue: Id(4242)}).Guidance("notty"); err == nil {
		t.Error("Guidance() with an unknown issue should fail")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      func() *ErrorContext
		wantNil    bool
		checkError func(t *testing.T, err *ActionableError)
	}{
		{
			name: "minimal with operation",
			setup: func() *ErrorContext {
				return NewErrorContext().WithOperation("update ytdl")
			},
			checkError: func(t *testing.T, err *ActionableError) {
				t.Helper()
				if err.Operation != "update ytdl" {
					t.Errorf("Operation = %q, want %q", err.Operation, "update ytdl")
				}
				if err.Issue != 0 {
					t.Errorf("Issue = %d, want 0", err.Issue)
				}
			},
		},
		{
			name: "missing operation returns nil",
			setup: func() *ErrorContext {
				return NewErrorContext().WithResource("some/path")
			},
			wantNil: true,
		},
		{
			name: "full context",
			setup: func() *ErrorContext {
				return NewErrorContext().
					WithOperation("load configuration").
					WithResource("/etc/ytdl/config.cue").
					WithSuggestion("Check syntax").
					WithSuggestion("Verify permissions").
					WithIssue(ConfigLoadFailedId).
					Wrap(errors.New("parse error"))
			},
			checkError: func(t *testing.T, err *ActionableError) {
				t.Helper()
				if err.Resource != "/etc/ytdl/config.cue" {
					t.Errorf("Resource = %q", err.Resource)
				}
				if len(err.Suggestions) != 2 {
					t.Errorf("Suggestions count = %d, want 2", len(err.Suggestions))
				}
				if err.Issue != ConfigLoadFailedId {
					t.Errorf("Issue = %d, want %d", err.Issue, ConfigLoadFailedId)
				}
				if err.Cause == nil || err.Cause.Error() != "parse error" {
					t.Errorf("Cause = %v", err.Cause)
				}
			},
		},
		{
			name: "with multiple suggestions",
			setup: func() *ErrorContext {
				return NewErrorContext().
					WithOperation("update ytdl").
					WithSuggestions("Suggestion 1", "Suggestion 2", "Suggestion 3")
			},
			checkError: func(t *testing.T, err *ActionableError) {
				t.Helper()
				if len(err.Suggestions) != 3 {
					t.Errorf("Suggestions count = %d, want 3", len(err.Suggestions))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.setup().Build()
			if tt.wantNil {
				if err != nil {
					t.Errorf("Build() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Build() returned nil, want error")
			}
			if tt.checkError != nil {
				tt.checkError(t, err)
			}
		})
	}
}

func TestErrorContext_BuildError(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().WithOperation("test").BuildError()
	if err == nil {
		t.Fatal("BuildError() returned nil")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Error("BuildError() should return *ActionableError")
	}

	// A typed nil must not leak into the error interface.
	if NewErrorContext().BuildError() != nil {
		t.Error("BuildError() should return nil when operation missing")
	}
}

func TestWrapHelpers(t *testing.T) {
	t.Parallel()

	cause := errors.New("original error")

	err := WrapWithOperation(cause, "check for updates")
	if err == nil || err.Operation != "check for updates" || !errors.Is(err, cause) {
		t.Errorf("WrapWithOperation() = %+v", err)
	}
	if WrapWithOperation(nil, "test") != nil {
		t.Error("WrapWithOperation(nil) should return nil")
	}

	err = WrapWithContext(cause, "download", "https://yt-dl.org/downloads/ytdl")
	if err == nil || err.Resource != "https://yt-dl.org/downloads/ytdl" || !errors.Is(err, cause) {
		t.Errorf("WrapWithContext() = %+v", err)
	}
	if WrapWithContext(nil, "test", "resource") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	if got := NewActionableError("test operation"); got.Operation != "test operation" || got.Cause != nil {
		t.Errorf("NewActionableError() = %+v", got)
	}
}

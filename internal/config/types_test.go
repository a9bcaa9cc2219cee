// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
	"time"
)

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value ColorScheme
		want  bool
	}{
		{ColorSchemeAuto, true},
		{ColorSchemeDark, true},
		{ColorSchemeLight, true},
		{"", false},
		{"DARK", false},
		{"neon", false},
	}

	for _, tt := range tests {
		valid, errs := tt.value.IsValid()
		if valid != tt.want {
			t.Errorf("ColorScheme(%q).IsValid() = %v, want %v", tt.value, valid, tt.want)
			continue
		}
		if !valid && (len(errs) != 1 || !errors.Is(errs[0], ErrInvalidColorScheme)) {
			t.Errorf("ColorScheme(%q) errors = %v, want ErrInvalidColorScheme", tt.value, errs)
		}
	}
}

func TestDeploymentName_IsValid(t *testing.T) {
	t.Parallel()

	for _, name := range []DeploymentName{DeploymentDetect, DeploymentFrozen, DeploymentArchive, DeploymentManaged} {
		if valid, _ := name.IsValid(); !valid {
			t.Errorf("DeploymentName(%q).IsValid() = false", name)
		}
	}

	valid, errs := DeploymentName("snap").IsValid()
	if valid || len(errs) != 1 || !errors.Is(errs[0], ErrInvalidDeploymentName) {
		t.Errorf("DeploymentName(snap).IsValid() = %v, %v", valid, errs)
	}
}

func TestUpdateConfig_IsValid(t *testing.T) {
	t.Parallel()

	base := DefaultConfig().Update

	tests := []struct {
		name   string
		modify func(*UpdateConfig)
		want   bool
	}{
		{name: "defaults", modify: func(*UpdateConfig) {}, want: true},
		{name: "http base url", modify: func(c *UpdateConfig) { c.BaseURL = "http://localhost:8080/update/" }, want: true},
		{name: "zero helper delay", modify: func(c *UpdateConfig) { c.HelperDelay = 0 }, want: true},
		{name: "empty base url", modify: func(c *UpdateConfig) { c.BaseURL = "" }, want: false},
		{name: "relative base url", modify: func(c *UpdateConfig) { c.BaseURL = "/update/" }, want: false},
		{name: "file base url", modify: func(c *UpdateConfig) { c.BaseURL = "file:///tmp/update/" }, want: false},
		{name: "negative helper delay", modify: func(c *UpdateConfig) { c.HelperDelay = -time.Second }, want: false},
		{name: "huge helper delay", modify: func(c *UpdateConfig) { c.HelperDelay = time.Hour }, want: false},
		{name: "zero timeout", modify: func(c *UpdateConfig) { c.Timeout = 0 }, want: false},
		{name: "blank user agent", modify: func(c *UpdateConfig) { c.UserAgent = "  " }, want: false},
		{name: "unknown deployment", modify: func(c *UpdateConfig) { c.Deployment = "snap" }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tt.modify(&cfg)
			valid, errs := cfg.IsValid()
			if valid != tt.want {
				t.Fatalf("IsValid() = %v (%v), want %v", valid, errs, tt.want)
			}
			if !valid && !errors.Is(errs[0], ErrInvalidUpdateConfig) {
				t.Errorf("error = %v, want ErrInvalidUpdateConfig", errs[0])
			}
		})
	}
}

func TestConfig_IsValid_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UI.ColorScheme = "neon"
	cfg.Update.Timeout = 0
	cfg.Update.BaseURL = "nope"

	valid, errs := cfg.IsValid()
	if valid || len(errs) != 1 {
		t.Fatalf("IsValid() = %v, %v", valid, errs)
	}

	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("error = %T, want *InvalidConfigError", errs[0])
	}
	if len(cfgErr.FieldErrors) != 2 {
		t.Fatalf("FieldErrors = %v, want UI and update errors", cfgErr.FieldErrors)
	}

	var updErr *InvalidUpdateConfigError
	if !errors.As(cfgErr.FieldErrors[1], &updErr) || len(updErr.FieldErrors) != 2 {
		t.Errorf("update errors = %v, want base_url and timeout", cfgErr.FieldErrors[1])
	}
}

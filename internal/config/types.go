// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DeploymentDetect leaves the deployment kind to the build-time hint and
	// path heuristics.
	DeploymentDetect DeploymentName = ""
	// DeploymentFrozen is a single self-contained executable.
	DeploymentFrozen DeploymentName = "frozen"
	// DeploymentArchive is an executable archive replaced in place.
	DeploymentArchive DeploymentName = "archive"
	// DeploymentManaged is an install owned by a package manager.
	DeploymentManaged DeploymentName = "managed"

	// DefaultBaseURL is the official update channel root.
	DefaultBaseURL = "https://yt-dl.org/update/"
	// DefaultHelperDelay is the wait of the frozen-variant helper script.
	DefaultHelperDelay = 5 * time.Second
	// DefaultTimeout bounds every update HTTP request, artifact downloads included.
	DefaultTimeout = 2 * time.Minute

	// maxHelperDelay keeps a misconfigured helper from lingering for hours.
	maxHelperDelay = 10 * time.Minute
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidDeploymentName is returned when a DeploymentName value is not recognized.
	ErrInvalidDeploymentName = errors.New("invalid deployment")
	// ErrInvalidUpdateConfig is the sentinel error wrapped by InvalidUpdateConfigError.
	ErrInvalidUpdateConfig = errors.New("invalid update config")
	// ErrInvalidUIConfig is the sentinel error wrapped by InvalidUIConfigError.
	ErrInvalidUIConfig = errors.New("invalid UI config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// DeploymentName is the configured name of a deployment kind.
	DeploymentName string

	// InvalidDeploymentNameError is returned when a DeploymentName value is not recognized.
	InvalidDeploymentNameError struct {
		Value DeploymentName
	}

	// InvalidFieldError reports a single out-of-range update setting.
	InvalidFieldError struct {
		Field  string
		Reason string
	}

	// InvalidUIConfigError is returned when a UIConfig has invalid fields.
	InvalidUIConfigError struct {
		FieldErrors []error
	}

	// InvalidUpdateConfigError is returned when an UpdateConfig has invalid fields.
	InvalidUpdateConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Update configures the self-update channel
		Update UpdateConfig `json:"update" mapstructure:"update"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging and full error diagnostics
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// UpdateConfig configures the self-update channel.
	UpdateConfig struct {
		// BaseURL is the update server root holding LATEST_VERSION and versions.json
		BaseURL string `json:"base_url" mapstructure:"base_url"`
		// Deployment overrides deployment detection; empty means detect
		Deployment DeploymentName `json:"deployment" mapstructure:"deployment"`
		// HelperDelay is how long the frozen-variant helper waits before replacing the executable
		HelperDelay time.Duration `json:"helper_delay" mapstructure:"helper_delay"`
		// Timeout bounds each update HTTP request
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// UserAgent overrides the User-Agent header; empty means "ytdl/<version>"
		UserAgent string `json:"user_agent" mapstructure:"user_agent"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Update: UpdateConfig{
			BaseURL:     DefaultBaseURL,
			Deployment:  DeploymentDetect,
			HelperDelay: DefaultHelperDelay,
			Timeout:     DefaultTimeout,
		},
	}
}

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined color schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the DeploymentName.
func (d DeploymentName) String() string { return string(d) }

// IsValid returns whether the DeploymentName is empty or a known deployment.
func (d DeploymentName) IsValid() (bool, []error) {
	switch d {
	case DeploymentDetect, DeploymentFrozen, DeploymentArchive, DeploymentManaged:
		return true, nil
	default:
		return false, []error{&InvalidDeploymentNameError{Value: d}}
	}
}

// Error implements the error interface for InvalidDeploymentNameError.
func (e *InvalidDeploymentNameError) Error() string {
	return fmt.Sprintf("invalid deployment %q (valid: frozen, archive, managed, or empty to detect)", e.Value)
}

// Unwrap returns ErrInvalidDeploymentName for errors.Is() compatibility.
func (e *InvalidDeploymentNameError) Unwrap() error { return ErrInvalidDeploymentName }

// Error implements the error interface for InvalidFieldError.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("update.%s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidUpdateConfig for errors.Is() compatibility.
func (e *InvalidFieldError) Unwrap() error { return ErrInvalidUpdateConfig }

// IsValid returns whether the UIConfig has valid fields.
func (c UIConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUIConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUIConfigError.
func (e *InvalidUIConfigError) Error() string {
	return fmt.Sprintf("invalid UI config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidUIConfig for errors.Is() compatibility.
func (e *InvalidUIConfigError) Unwrap() error { return ErrInvalidUIConfig }

// IsValid returns whether the UpdateConfig has valid fields. The schema
// already constrains the file; this also covers values from the environment.
func (c UpdateConfig) IsValid() (bool, []error) {
	var errs []error
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		errs = append(errs, &InvalidFieldError{Field: "base_url", Reason: fmt.Sprintf("%q is not an http(s) URL", c.BaseURL)})
	}
	if valid, fieldErrs := c.Deployment.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.HelperDelay < 0 || c.HelperDelay > maxHelperDelay {
		errs = append(errs, &InvalidFieldError{Field: "helper_delay", Reason: fmt.Sprintf("%s is outside 0s..%s", c.HelperDelay, maxHelperDelay)})
	}
	if c.Timeout <= 0 {
		errs = append(errs, &InvalidFieldError{Field: "timeout", Reason: "must be positive"})
	}
	if c.UserAgent != "" && strings.TrimSpace(c.UserAgent) == "" {
		errs = append(errs, &InvalidFieldError{Field: "user_agent", Reason: "must not be whitespace-only"})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidUpdateConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidUpdateConfigError.
func (e *InvalidUpdateConfigError) Error() string {
	return fmt.Sprintf("invalid update config: %s", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidUpdateConfig for errors.Is() compatibility.
func (e *InvalidUpdateConfigError) Unwrap() error { return ErrInvalidUpdateConfig }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.UI.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Update.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

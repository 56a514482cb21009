package indexer

import "errors"

// ErrEmptyQuery is returned before any network call when the search text is
// blank. It is a caller error, not a search failure.
var ErrEmptyQuery = errors.New("search query is required")

// Error codes surfaced to clients for configuration failures.
const (
	CodeConfigMissing    = "CONFIG_MISSING"
	CodeConfigIncomplete = "CONFIG_INCOMPLETE"
)

// configRedirect is where clients are pointed to fix configuration problems.
const configRedirect = "/config"

// ConfigError is a request-fatal configuration failure. It carries a
// machine-readable code and a redirect hint so the client can send the user
// to the configuration page.
type ConfigError struct {
	Code       string
	Message    string
	RedirectTo string
}

func (e *ConfigError) Error() string { return e.Message }

func errConfigMissing() *ConfigError {
	return &ConfigError{
		Code:       CodeConfigMissing,
		Message:    "Configuration not found. Please configure your settings first.",
		RedirectTo: configRedirect,
	}
}

func errConfigIncomplete() *ConfigError {
	return &ConfigError{
		Code:       CodeConfigIncomplete,
		Message:    "Indexer configuration is incomplete. Please check your settings.",
		RedirectTo: configRedirect,
	}
}

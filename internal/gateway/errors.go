package gateway

import "fmt"

// ConfigurationError reports a provider id that has no registry entry.
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

// MissingCredentialError reports a request with no credential and no
// default key in the environment for the selected provider.
type MissingCredentialError struct {
	Provider Provider
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("no credential supplied for provider %q and no default configured", e.Provider)
}

// UpstreamHTTPError carries a non-2xx response from a provider.
type UpstreamHTTPError struct {
	Status int
	Body   string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// MalformedResponseError reports an upstream payload missing a field the
// caller cannot proceed without.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed upstream response: %s", e.Reason)
}

// TimeoutError reports an exhausted polling budget. It is distinct from an
// upstream-reported failure: the job may still complete server-side.
type TimeoutError struct {
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation still pending after %d status checks", e.Attempts)
}

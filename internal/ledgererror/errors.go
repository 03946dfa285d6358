// Package ledgererror defines the typed failures a voice-ledger request can end with.
package ledgererror

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Kind names an abstract failure category surfaced to callers.
type Kind string

const (
	KindMalformedUpstreamOutput Kind = "MalformedUpstreamOutput"
	KindReferenceIntegrity      Kind = "ReferenceIntegrityError"
	KindEmptyUpstreamResponse   Kind = "EmptyUpstreamResponse"
	KindConfiguration           Kind = "ConfigurationError"
	KindUpstreamProvider        Kind = "UpstreamProviderError"
	KindInvalidRequest          Kind = "InvalidRequest"
	KindUnknown                 Kind = "InternalError"
)

// maxSnippet bounds the raw model text kept for diagnostics.
const maxSnippet = 2048

// MalformedOutputError is returned when the model reply cannot be read as the
// expected JSON shape, even after fence stripping.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return "model did not return valid JSON"
	}
	return fmt.Sprintf("model did not return valid JSON: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// Kind implements Kinded.
func (e *MalformedOutputError) Kind() Kind { return KindMalformedUpstreamOutput }

// Snippet returns the offending raw text, truncated on a rune boundary.
func (e *MalformedOutputError) Snippet() string {
	if len(e.Raw) <= maxSnippet {
		return e.Raw
	}
	end := maxSnippet
	for end > 0 && !utf8.RuneStart(e.Raw[end]) {
		end--
	}
	return e.Raw[:end]
}

// ReferenceIntegrityError is returned when a record points at an id that the
// caller's catalog does not contain.
type ReferenceIntegrityError struct {
	ID    string
	Field string
	Index int
}

func (e *ReferenceIntegrityError) Error() string {
	return fmt.Sprintf("record %d: %s references unknown entity '%s'", e.Index, e.Field, e.ID)
}

// Kind implements Kinded.
func (e *ReferenceIntegrityError) Kind() Kind { return KindReferenceIntegrity }

// EmptyResponseError is returned when the provider answered without any usable content.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("%s: empty response from model", e.Provider)
}

// Kind implements Kinded.
func (e *EmptyResponseError) Kind() Kind { return KindEmptyUpstreamResponse }

// ConfigurationError is returned when required configuration is missing or invalid.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Key, e.Reason)
}

// Kind implements Kinded.
func (e *ConfigurationError) Kind() Kind { return KindConfiguration }

// ProviderError wraps a failed call to the language-model provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: request failed with status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Kind implements Kinded.
func (e *ProviderError) Kind() Kind { return KindUpstreamProvider }

// InvalidRequestError is returned when the caller's request itself is unusable.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Kind implements Kinded.
func (e *InvalidRequestError) Kind() Kind { return KindInvalidRequest }

// Kinded is implemented by every error in this package.
type Kinded interface {
	error
	Kind() Kind
}

// KindOf returns the kind of the first Kinded error in err's chain.
func KindOf(err error) Kind {
	var k Kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

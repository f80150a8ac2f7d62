package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCredentialMissing marks a source that was skipped because it needs a credential.
var ErrCredentialMissing = errors.New("credential not configured")

// SourceFetchError is returned by a source adapter that could not produce items.
type SourceFetchError struct {
	Source     string
	StatusCode int
	Status     string
	Err        error
}

func (e *SourceFetchError) Error() string {
	switch {
	case e.Status != "" && e.Err != nil:
		return fmt.Sprintf("source %s: %s: %v", e.Source, e.Status, e.Err)
	case e.Status != "":
		return fmt.Sprintf("source %s: unexpected status %s", e.Source, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("source %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("source %s: fetch failed", e.Source)
	}
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// ConfigurationError aborts a run before any fetch is attempted.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// EmptyDigestError reports that no item survived the pipeline.
type EmptyDigestError struct {
	Attempted []string
	Failed    []string
}

func (e *EmptyDigestError) Error() string {
	msg := "no items survived the pipeline"
	if len(e.Attempted) > 0 {
		msg += "; attempted: " + strings.Join(e.Attempted, ", ")
	}
	if len(e.Failed) > 0 {
		msg += "; failed: " + strings.Join(e.Failed, ", ")
	}
	return msg
}

// DeliveryError is returned when the delivery endpoint rejects the payload.
type DeliveryError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("delivery rejected: %s", e.Status)
	}
	return fmt.Sprintf("delivery rejected: %s: %s", e.Status, e.Body)
}

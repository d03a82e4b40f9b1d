package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrIO marks local file read or manifest write failures. Fatal to the
	// affected file only.
	ErrIO = errors.New("io error")
	// ErrUpload marks immutable-store transport, auth, or rate-limit failures.
	ErrUpload = errors.New("upload error")
	// ErrReconcile marks metadata-store read or write failures for a file.
	ErrReconcile = errors.New("reconcile error")
	// ErrStateRejected marks a package whose remote state does not permit publishing.
	ErrStateRejected = errors.New("state rejected")
	// ErrManifestCorrupt marks an unreadable or invalid manifest.
	ErrManifestCorrupt = errors.New("manifest corrupt")
	// ErrManifestLocked marks a manifest held by another running process.
	ErrManifestLocked = errors.New("manifest locked")
	// ErrStateLookup marks a failure to fetch the package's remote state.
	ErrStateLookup   = errors.New("state lookup error")
	ErrConfiguration = errors.New("configuration error")
	ErrAuth          = errors.New("authentication failure")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RunFatal reports whether err aborts a whole publish run rather than a
// single file.
func RunFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrStateRejected), errors.Is(err, ErrStateLookup),
		errors.Is(err, ErrManifestCorrupt), errors.Is(err, ErrManifestLocked):
		return true
	default:
		return false
	}
}

// Kind returns a short classification label for err, used in run results and
// the history ledger.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrManifestCorrupt):
		return "manifest_corrupt"
	case errors.Is(err, ErrManifestLocked):
		return "manifest_locked"
	case errors.Is(err, ErrStateRejected):
		return "state_rejected"
	case errors.Is(err, ErrStateLookup):
		return "state_lookup"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrReconcile):
		return "reconcile"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	default:
		return "unknown"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

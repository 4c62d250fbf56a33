package dispatch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/smartprint/backend/internal/domain/shared"
)

// urlPattern matches the first absolute http(s) URL in free-text scan
// content.
var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// Target is a resolved dispatch destination
type Target struct {
	URL *url.URL
}

// String returns the target base URL without a trailing slash
func (t Target) String() string {
	return strings.TrimRight(t.URL.String(), "/")
}

// ResolveTarget extracts the delivery target from a raw scanned payload.
// Only payloads containing a well-formed absolute URL are accepted;
// anything else fails with an invalid-target error and the scan loop
// continues.
func ResolveTarget(rawPayload string) (Target, error) {
	match := urlPattern.FindString(rawPayload)
	if match == "" {
		return Target{}, shared.ErrInvalidTarget
	}

	u, err := url.Parse(match)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return Target{}, shared.ErrInvalidTarget
	}

	return Target{URL: u}, nil
}

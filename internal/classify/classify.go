// Package classify maps raw failures onto the fixed taxonomy of error kinds
// shown to the user.
package classify

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Kind identifies a failure category.
type Kind string

const (
	// KindNetwork covers connectivity, DNS and transport-level failures.
	KindNetwork Kind = "network"
	// KindAuth covers sign-in, 403 and authorization failures.
	KindAuth Kind = "auth"
	// KindNotFound covers removed, deleted or otherwise missing sources.
	KindNotFound Kind = "not_found"
	// KindAgeRestricted covers age-gated sources.
	KindAgeRestricted Kind = "age_restricted"
	// KindGeoBlocked covers region-locked sources.
	KindGeoBlocked Kind = "geo_blocked"
	// KindFormat covers missing or incompatible format listings.
	KindFormat Kind = "format"
	// KindRateLimit covers throttling and 429 responses.
	KindRateLimit Kind = "rate_limit"
	// KindPermission covers filesystem and OS access failures.
	KindPermission Kind = "permission"
	// KindDiskSpace covers exhausted storage.
	KindDiskSpace Kind = "disk_space"
	// KindGeneric covers everything else.
	KindGeneric Kind = "generic"
)

// Retryable reports whether a fresh attempt may succeed without the user
// changing anything but timing.
func (k Kind) Retryable() bool {
	return k == KindNetwork || k == KindRateLimit
}

// Result is a classified failure: the kind plus the message shown to the user.
type Result struct {
	Kind    Kind
	Message string
}

// genericLimit caps the raw text carried into a generic message.
const genericLimit = 100

// Fixed user-facing message per kind.
const (
	msgNetwork  = "Network error. Check your internet connection and try again."
	msgTimeout  = "Connection timed out. Try again in a moment."
	msgAuth     = "This video requires sign-in or authorization to access."
	msgNotFound = "Video not found. It may have been removed or made private."
	msgAge      = "This video is age-restricted and cannot be downloaded."
	msgGeo      = "This video is not available in your region."
	msgFormat   = "No downloadable formats were found for this video."
	msgRate     = "Too many requests. Wait a few minutes and try again."
	msgPerm     = "Permission denied. Choose a different download folder."
	msgDisk     = "Not enough disk space to finish the download."
	msgUnknown  = "Download failed for an unknown reason."
)

// group is one keyword bucket of the taxonomy. Groups are evaluated in
// priority order against the lower-cased error text; the first hit wins.
type group struct {
	kind     Kind
	message  string
	keywords []string
}

var groups = []group{
	{KindNetwork, msgNetwork, []string{
		"network", "dns", "connection", "connect", "timed out", "timeout",
		"unreachable", "no internet", "getaddrinfo", "name resolution", "ssl", "socket",
	}},
	{KindAuth, msgAuth, []string{
		"403", "forbidden", "sign in", "log in", "login", "auth", "account", "private",
	}},
	{KindNotFound, msgNotFound, []string{
		"404", "not found", "unavailable", "removed", "deleted", "does not exist",
	}},
	{KindAgeRestricted, msgAge, []string{
		"age-restricted", "age restricted", "confirm your age", "age verification",
	}},
	{KindGeoBlocked, msgGeo, []string{
		"geo", "country", "region", "not available in your",
	}},
	{KindFormat, msgFormat, []string{
		"format", "no video",
	}},
	{KindRateLimit, msgRate, []string{
		"429", "too many requests", "rate limit", "ratelimit", "throttl",
	}},
	{KindPermission, msgPerm, []string{
		"permission", "access denied", "access is denied", "winerror 5", "errno 13",
	}},
	{KindDiskSpace, msgDisk, []string{
		"disk", "no space left", "not enough space",
	}},
}

// Classify maps any failure to a taxonomy kind and its user-facing message.
// It is total: it never panics and always returns a known kind.
func Classify(err error) Result {
	if err == nil {
		return Result{Kind: KindGeneric, Message: msgUnknown}
	}

	// Typed transport failures skip keyword matching.
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return Result{Kind: KindNetwork, Message: msgTimeout}
	}

	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)

	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return Result{Kind: KindNetwork, Message: msgNetwork}
	}

	text := strings.ToLower(err.Error())
	if strings.TrimSpace(text) == "" {
		return Result{Kind: KindGeneric, Message: msgUnknown}
	}

	for _, g := range groups {
		for _, keyword := range g.keywords {
			if strings.Contains(text, keyword) {
				return Result{Kind: g.kind, Message: g.message}
			}
		}
	}

	return Result{Kind: KindGeneric, Message: truncate(err.Error(), genericLimit)}
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "…"
}

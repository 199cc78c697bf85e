package observability

import (
	"strings"
	"unicode"
)

const defaultStringLimit = 256

// sanitizeString strips control characters and limits length to avoid log injection.
func sanitizeString(value string, limit int) string {
	if limit <= 0 {
		limit = defaultStringLimit
	}

	cleaned := make([]rune, 0, len(value))
	for _, r := range value {
		if unicode.IsControl(r) {
			continue
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return string(cleaned)
}

// SanitizeRoute removes control characters and enforces length constraints on routes.
func SanitizeRoute(route string) string {
	if route == "" {
		return "/"
	}
	return sanitizeString(route, 180)
}

// SanitizeMethod removes control characters in HTTP methods.
func SanitizeMethod(method string) string {
	return sanitizeString(method, 10)
}

// SanitizeStoreID bounds client-supplied store identifiers before they reach logs.
func SanitizeStoreID(id string) string {
	return sanitizeString(id, 64)
}

// RouteArea names the advisor surface a route belongs to: recommendations, pricing, admin or
// probe. Anything else is "other".
func RouteArea(route string) string {
	switch route {
	case "/healthz", "/readyz":
		return "probe"
	}
	rest, ok := strings.CutPrefix(route, "/api/v1/")
	if !ok {
		return "other"
	}
	area, _, _ := strings.Cut(rest, "/")
	switch area {
	case "recommendations", "pricing", "admin":
		return area
	}
	return "other"
}

package graph

import (
	"fmt"
	"strings"
)

// DefaultOrigin is the namespace used for canonical entity URLs when no
// origin is configured.
const DefaultOrigin = "graph://local"

// CanonicalURL builds the fully-qualified URL for an entity:
// origin + "/" + lowercase(type) + "/" + id.
func CanonicalURL(origin, entityType, id string) string {
	if origin == "" {
		origin = DefaultOrigin
	}
	return strings.TrimRight(origin, "/") + "/" + strings.ToLower(entityType) + "/" + id
}

// ParseURL extracts the entity type and id from a canonical URL. The origin
// prefix is ignored so stores accept URLs minted under any namespace.
func ParseURL(url string) (entityType, id string, err error) {
	trimmed := strings.TrimRight(url, "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("malformed entity url %q", url)
	}
	entityType = parts[len(parts)-2]
	id = parts[len(parts)-1]
	if entityType == "" || id == "" {
		return "", "", fmt.Errorf("malformed entity url %q", url)
	}
	return strings.ToLower(entityType), id, nil
}

// normalizeType lowercases an entity type for storage and comparison.
func normalizeType(t string) string {
	return strings.ToLower(t)
}

// entityKey is the store-internal identity for an entity.
func entityKey(entityType, id string) string {
	return strings.ToLower(entityType) + "/" + id
}

// urlKey parses a URL down to its store-internal identity.
func urlKey(url string) (string, error) {
	t, id, err := ParseURL(url)
	if err != nil {
		return "", err
	}
	return entityKey(t, id), nil
}

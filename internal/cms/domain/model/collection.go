package model

import (
	"encoding/json"
	"strings"
)

// Collection names. Each maps to one storage key and one <name>.json file.
const (
	CollectionProjects = "projects"
	CollectionNews     = "news"
	CollectionSettings = "settings"
	CollectionPages    = "pages"
)

// Collections lists every collection the service persists, in lock order.
var Collections = []string{CollectionProjects, CollectionNews, CollectionSettings, CollectionPages}

// IsSequence reports whether the collection is stored as an array of records.
func IsSequence(collection string) bool {
	return collection == CollectionProjects || collection == CollectionNews
}

// EmptyDefault is the value a collection reads as when nothing is stored.
func EmptyDefault(collection string) json.RawMessage {
	if IsSequence(collection) {
		return json.RawMessage(`[]`)
	}
	return json.RawMessage(`{}`)
}

// StorageKey derives the backend key from a collection or file name.
func StorageKey(name string) string {
	return strings.TrimSuffix(name, ".json")
}

// FileName is the on-disk name for a collection.
func FileName(name string) string {
	return StorageKey(name) + ".json"
}

// NotFoundResource names a missing record of the collection in user-facing errors.
func NotFoundResource(collection string) string {
	switch collection {
	case CollectionProjects:
		return "Project"
	case CollectionNews:
		return "Article"
	default:
		return "Record"
	}
}

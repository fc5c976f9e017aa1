package models

import "strings"

// CollectionKey identifies one ordered collection, e.g. the images of a
// single location ({Kind: "images", Scope: "location:42"}).
type CollectionKey struct {
	Kind  string `json:"kind"`
	Scope string `json:"scope,omitempty"`
}

// String returns "kind" or "kind/scope".
func (k CollectionKey) String() string {
	if k.Scope == "" {
		return k.Kind
	}
	return k.Kind + "/" + k.Scope
}

// ParseCollectionKey is the inverse of CollectionKey.String.
func ParseCollectionKey(s string) CollectionKey {
	kind, scope, _ := strings.Cut(s, "/")
	return CollectionKey{Kind: kind, Scope: scope}
}

// Package models defines the domain types for Curator.
package models

import (
	"encoding/json"
	"time"
)

// Collection kinds managed by the console.
const (
	KindArticles   = "articles"
	KindPromotions = "promotions"
	KindLocations  = "locations"
	KindProjects   = "projects"
	KindTeams      = "teams"
	KindDoctors    = "doctors"
	KindCategories = "categories"
	KindBanners    = "banners"
	KindImages     = "images"
	KindVideos     = "videos"
)

// Kinds lists every collection kind accepted by the API.
var Kinds = []string{
	KindArticles, KindPromotions, KindLocations, KindProjects, KindTeams,
	KindDoctors, KindCategories, KindBanners, KindImages, KindVideos,
}

// ValidKind reports whether kind is a known collection kind.
func ValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// OrderedItem is a record ranked inside its collection. Position is 1-based
// and contiguous within (Kind, Scope) at rest.
type OrderedItem struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Scope     string          `json:"scope,omitempty"`
	Position  int             `json:"position"`
	Label     string          `json:"label"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Checksum  string          `json:"checksum"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemPage is one page of a filtered collection listing.
type ItemPage struct {
	Nodes []OrderedItem `json:"nodes"`
	Total int           `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// FilterParams selects a page of one collection.
type FilterParams struct {
	Kind  string
	Scope string
	Page  int
	Limit int
}

// MoveParams positions an item. Position is 1-based; Scope, when set, must
// match the collection the item belongs to.
type MoveParams struct {
	Position int    `json:"position"`
	Scope    string `json:"scope,omitempty"`
}

package models

import "encoding/json"

// Option is one selectable record returned by a remote search.
type Option struct {
	Label string          `json:"label"`
	Value string          `json:"value"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SearchPage is a remote search response. Nodes keep the order returned
// by the server.
type SearchPage struct {
	Nodes []Option `json:"nodes"`
	Page  int      `json:"page"`
	Limit int      `json:"limit"`
	Total int      `json:"total"`
}

// HasNextPage reports whether more pages exist after this one.
// It assumes Total did not change between page fetches.
func (p *SearchPage) HasNextPage() bool {
	if p == nil {
		return false
	}
	return p.Page*p.Limit < p.Total
}

// SelectedOption is a value held by a form field: either picked from search
// results or created from free text.
type SelectedOption struct {
	Label string          `json:"label"`
	Value string          `json:"value"`
	Data  json.RawMessage `json:"data,omitempty"`
	IsNew bool            `json:"is_new,omitempty"`
}

// SelectedFromOption maps a search node to a selected value.
func SelectedFromOption(o Option) SelectedOption {
	return SelectedOption{Label: o.Label, Value: o.Value, Data: o.Data}
}

// NewCreatedOption builds a selected value from user free text.
func NewCreatedOption(label string) SelectedOption {
	return SelectedOption{Label: label, Value: label, IsNew: true}
}

package domain

import (
	"encoding/json"
	"math"
)

// RawCriteria is the filter input as submitted by the form.
// Every field is optional and may hold any JSON value; normalization coerces them.
type RawCriteria struct {
	MinPrice any `json:"minPrice,omitempty"`
	MaxPrice any `json:"maxPrice,omitempty"`
	Color    any `json:"color,omitempty"`
	Size     any `json:"size,omitempty"`
	Gender   any `json:"gender,omitempty"`
}

// Criteria is the normalized filter. Empty string fields are wildcards.
type Criteria struct {
	MinPrice float64 `json:"minPrice"`
	MaxPrice float64 `json:"maxPrice"`
	Color    string  `json:"color"`
	Size     string  `json:"size"`
	Gender   string  `json:"gender"`
}

// NoUpperBound is the MaxPrice used when no usable bound was supplied
const NoUpperBound = math.MaxFloat64

// MarshalJSON encodes infinite bounds as null, since JSON has no infinity
func (c Criteria) MarshalJSON() ([]byte, error) {
	type alias struct {
		MinPrice *float64 `json:"minPrice"`
		MaxPrice *float64 `json:"maxPrice"`
		Color    string   `json:"color"`
		Size     string   `json:"size"`
		Gender   string   `json:"gender"`
	}
	out := alias{Color: c.Color, Size: c.Size, Gender: c.Gender}
	if !math.IsInf(c.MinPrice, 0) && !math.IsNaN(c.MinPrice) {
		out.MinPrice = &c.MinPrice
	}
	if !math.IsInf(c.MaxPrice, 0) && !math.IsNaN(c.MaxPrice) {
		out.MaxPrice = &c.MaxPrice
	}
	return json.Marshal(out)
}

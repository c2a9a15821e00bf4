package store

import (
	"math"

	"inkwell/internal/model"
)

// ListQuery selects one page of articles, newest first.
type ListQuery struct {
	Page     int            `schema:"page"`
	PerPage  int            `schema:"perPage"`
	Category model.Category `schema:"category"`
}

// Normalize clamps the window: page starts at 1, perPage falls back to
// def and never exceeds max. Page is capped so Offset cannot overflow.
func (q *ListQuery) Normalize(def, max int) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = def
	}
	if q.PerPage > max {
		q.PerPage = max
	}
	if limit := math.MaxInt / q.PerPage; q.Page > limit {
		q.Page = limit
	}
}

func (q *ListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

package model

import "time"

// Rating bounds for a comment.  A comment without a rating stores NULL.
const (
	MinRating = 1
	MaxRating = 5
)

// Comment belongs to one user and one book.  Only its owner or an
// administrador may change it.
type Comment struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	BookID    uint64    `json:"book_id"`
	Body      string    `json:"body"`
	Rating    *int      `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingInRange reports whether r is absent or within [MinRating, MaxRating].
func RatingInRange(r *int) bool {
	return r == nil || (*r >= MinRating && *r <= MaxRating)
}

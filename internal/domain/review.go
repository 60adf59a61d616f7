package domain

import "time"

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating and text for a movie.
type Review struct {
	ID         int64
	UserID     int64
	MovieID    int64
	Rating     int
	ReviewText string
	CreatedAt  time.Time
}

// ReviewView is a review with its author's username, for listings.
type ReviewView struct {
	Review
	Username string
}

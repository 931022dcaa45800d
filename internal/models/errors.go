package models

import "errors"

// Domain errors surfaced by the subscription lifecycle. Handlers map these to
// HTTP status codes; everything else is treated as an internal error.
var (
	ErrInvalidFrequency     = errors.New("invalid frequency")
	ErrInvalidToken         = errors.New("invalid token")
	ErrExpiredToken         = errors.New("token expired")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionExists   = errors.New("subscription already exists")
)

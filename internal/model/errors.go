package model

import "errors"

var (
	// ErrConstraint wraps store-level constraint violations such as a match
	// referencing an unknown player, or deleting players that matches still
	// reference.
	ErrConstraint = errors.New("constraint violation")

	ErrSelfMatch = errors.New("winner and loser are the same player")
	ErrEmptyName = errors.New("player name is empty")
)

package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrPostNotFound = errors.New("post not found")
	ErrPostExists   = errors.New("post already exists")
	// ErrInvalidID is returned when an id is not in the backend's format
	// (ObjectID hex for Mongo, UUID for Postgres).
	ErrInvalidID = errors.New("invalid id")
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

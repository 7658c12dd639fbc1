package repository

import "errors"

var (
	// ErrHallNotFound indicates the hall is not registered
	ErrHallNotFound = errors.New("hall not found")

	// ErrNoHalls indicates the store holds no halls at all
	ErrNoHalls = errors.New("no halls registered")

	// ErrRepositoryUnavailable indicates the repository is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)

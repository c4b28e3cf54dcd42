package domain

import "errors"

var (
	ErrAuth          = errors.New("invalid username or password")
	ErrNotFound      = errors.New("not found")
	ErrImportFormat  = errors.New("invalid import file format")
	ErrNetwork       = errors.New("network error")
	ErrForbidden     = errors.New("permission denied")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTypeKeyTaken  = errors.New("project type key already exists")
	ErrUsernameTaken = errors.New("username already exists")
	ErrConflict      = errors.New("concurrent update, retry")
)

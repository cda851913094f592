package user

import "errors"

var (
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// PgUniqueViolation is the postgres error code for unique constraint violations.
const PgUniqueViolation = "23505"

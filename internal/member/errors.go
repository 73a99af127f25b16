package member

import "errors"

var (
	ErrNotFound      = errors.New("member: not found")
	ErrAlreadyExists = errors.New("member: already exists")
	ErrInvalidInput  = errors.New("member: invalid input")
)

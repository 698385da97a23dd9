package repositories

import "github.com/pkg/errors"

var (
	ErrNotFound      = errors.New("record not found")
	ErrValidation    = errors.New("validation failed")
	ErrBuiltInSource = errors.New("built-in sources cannot be deleted")
)

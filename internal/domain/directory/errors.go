package directory

import "errors"

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrBusinessNotFound = errors.New("business not found")
)

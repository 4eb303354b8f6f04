package client

import "errors"

var (
	ErrUnavailable     = errors.New("server unavailable")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrRateLimited     = errors.New("too many requests")
	ErrRejected        = errors.New("request rejected")
	ErrInvalidResponse = errors.New("invalid server response")
)

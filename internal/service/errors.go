package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrRequestTimeout = errors.New("request timeout")
	ErrTransport      = errors.New("transport failure")
	ErrStore          = errors.New("store failure")
	ErrPrivateTarget  = errors.New("requests to private IP addresses are not allowed")
)

// Transport error codes reported in the stored response snapshot.
const (
	CodeTimeout        = "ETIMEDOUT"
	CodeNotFound       = "ENOTFOUND"
	CodeConnRefused    = "ECONNREFUSED"
	CodeConnReset      = "ECONNRESET"
	CodeBlocked        = "EBLOCKED"
	CodeInvalidRequest = "ERR_INVALID_REQUEST"
	CodeNetwork        = "ERR_NETWORK"
)

// TransportError is returned by the executor when no HTTP response was received.
type TransportError struct {
	Code         string
	ResponseTime int64
	Err          error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	errs := []error{ErrTransport, e.Err}
	if e.Code == CodeTimeout {
		errs = append(errs, ErrRequestTimeout)
	}
	return errs
}

func notFound(what string, id uint) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
}

// Package errors provides the sentinel errors of the record store.
package errors

import "errors"

var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrRecordExists    = errors.New("record already exists")
	ErrInvalidArgument = errors.New("invalid argument")
)

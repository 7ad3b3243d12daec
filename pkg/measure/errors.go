package measure

import "errors"

var (
	ErrUndefinedUnit = errors.New("undefined unit")
	ErrSyntax        = errors.New("invalid unit expression")
	ErrIncompatible  = errors.New("incompatible units")
	ErrValue         = errors.New("invalid magnitude")
)

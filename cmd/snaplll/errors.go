package main

import "errors"

// Sentinel errors for command operations
var (
	ErrFileNotFormatted = errors.New("file is not formatted")
	ErrFormattingErrors = errors.New("some files had formatting errors")
	ErrUnknownFunction  = errors.New("unknown function")
	ErrArgumentCount    = errors.New("wrong number of arguments")
	ErrVariableArgument = errors.New("variable-length arguments cannot be passed as words")
	ErrBadSignature     = errors.New("malformed function signature")
	ErrBadArgument      = errors.New("argument is not a number")
	ErrNoTestCases      = errors.New("no test cases found")
	ErrTestsFailed      = errors.New("some test cases failed")
	ErrUnknownFormat    = errors.New("unknown output format")
	ErrUnexpectedRevert = errors.New("call reverted")
	ErrMissingRevert    = errors.New("call did not revert")
	ErrWrongResult      = errors.New("unexpected return value")
)

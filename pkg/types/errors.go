package types

import "errors"

// Domain errors for type validation
var (
	// ErrParseFailed is wrapped by every error a parser returns for a file it could not handle
	ErrParseFailed = errors.New("parse failed")

	ErrInvalidSymbol = errors.New("invalid symbol")

	// Search result errors
	ErrInvalidResultType  = errors.New("invalid search result type")
	ErrMissingSymbolID    = errors.New("symbol result requires a symbol id")
	ErrUnexpectedSymbolID = errors.New("file result must not carry a symbol id")
	ErrMissingFilePath    = errors.New("file path is required")
)

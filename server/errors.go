package server

import "errors"

var (
	errHistoryDisabled = errors.New("history persistence is disabled")
	errInvalidLimit    = errors.New("invalid limit")
)

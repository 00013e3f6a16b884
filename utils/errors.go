package utils

import "errors"

// These errors can occur on the node-facing simulator surface.
var (
	ErrInvalidAddress = errors.New("address out of range")
	ErrNotLive        = errors.New("node is not live")
	ErrBadPacket      = errors.New("unparseable packet payload")
	ErrMalformedInput = errors.New("malformed user input")
	ErrKeyNotFound    = errors.New("key not found")
)

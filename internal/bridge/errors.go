package bridge

import "errors"

// Domain errors for the bridge package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrConversionFailed is returned when a raw entity state cannot be
	// interpreted as a number for its property. The property is dropped
	// from that cycle's payload; the push proceeds without it.
	ErrConversionFailed = errors.New("bridge: conversion failed")

	// ErrUnsupportedCommand is returned when a downlink request does
	// not carry an applicable state parameter.
	ErrUnsupportedCommand = errors.New("bridge: unsupported command")
)

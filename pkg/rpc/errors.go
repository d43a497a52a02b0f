package rpc

import (
	"errors"

	"github.com/teslashibe/go-nao/pkg/agent"
	"github.com/teslashibe/go-nao/pkg/kinematics"
)

var (
	// ErrTransport wraps every failure to reach the server or read its reply.
	ErrTransport = errors.New("rpc transport failure")

	// ErrMethodNotFound is returned for a method outside the catalogue.
	ErrMethodNotFound = errors.New("method not found")

	// ErrInvalidParams is returned when parameters are missing or mistyped.
	ErrInvalidParams = errors.New("invalid params")

	// ErrPostQueueFull is returned when the non-blocking dispatch queue is full.
	ErrPostQueueFull = errors.New("post queue full")

	// ErrClientGone is returned when the client behind a Post was collected.
	ErrClientGone = errors.New("client no longer exists")

	// ErrPostClosed is returned after the client was closed.
	ErrPostClosed = errors.New("post closed")
)

// Code classifies a remote error.
type Code string

// Error codes carried in responses.
const (
	CodeUnknownJoint       Code = "unknown_joint"
	CodeUnknownEffector    Code = "unknown_effector"
	CodeNoReading          Code = "no_reading"
	CodeInvalidParams      Code = "invalid_params"
	CodeMalformedTransform Code = "malformed_transform"
	CodeMethodNotFound     Code = "method_not_found"
	CodeUnavailable        Code = "unavailable"
	CodeInternal           Code = "internal"
)

// codeErrors pairs codes with the sentinels they stand for, in match order.
var codeErrors = []struct {
	code Code
	err  error
}{
	{CodeUnknownJoint, kinematics.ErrUnknownJoint},
	{CodeUnknownEffector, agent.ErrUnknownEffector},
	{CodeNoReading, agent.ErrNoReading},
	{CodeMalformedTransform, kinematics.ErrMalformedTransform},
	{CodeInvalidParams, ErrInvalidParams},
	{CodeMethodNotFound, ErrMethodNotFound},
	{CodeUnavailable, agent.ErrNoSolver},
}

// Error is a failure reported by the server. It matches the sentinel of its
// code with errors.Is, so callers test remote and local errors the same way.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	for _, ce := range codeErrors {
		if ce.code == e.Code {
			return ce.err == target
		}
	}
	return false
}

// ErrorFrom classifies err. Unrecognized errors become CodeInternal.
func ErrorFrom(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	for _, ce := range codeErrors {
		if errors.Is(err, ce.err) {
			return &Error{Code: ce.code, Message: err.Error()}
		}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}

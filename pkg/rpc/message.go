// Package rpc implements the remote control protocol: a fixed catalogue of
// named operations carried as JSON envelopes over HTTP, plus a websocket
// stream of per-cycle transforms.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Method names an operation in the catalogue.
type Method string

// The operation catalogue.
const (
	MethodGetAngle         Method = "get_angle"
	MethodSetAngle         Method = "set_angle"
	MethodGetPosture       Method = "get_posture"
	MethodExecuteKeyframes Method = "execute_keyframes"
	MethodGetTransform     Method = "get_transform"
	MethodSetTransform     Method = "set_transform"
)

// Methods lists the catalogue in a stable order.
var Methods = []Method{
	MethodGetAngle,
	MethodSetAngle,
	MethodGetPosture,
	MethodExecuteKeyframes,
	MethodGetTransform,
	MethodSetTransform,
}

// Request is one call. Params are positional.
type Request struct {
	ID     string            `json:"id"`
	Method Method            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// NewRequest encodes params and assigns a fresh request ID.
func NewRequest(method Method, params ...any) (*Request, error) {
	raw := make([]json.RawMessage, 0, len(params))
	for i, p := range params {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal param %d of %s: %w", i, method, err)
		}
		raw = append(raw, data)
	}
	return &Request{
		ID:     uuid.NewString(),
		Method: method,
		Params: raw,
	}, nil
}

// Param decodes positional parameter i into v.
func (r *Request) Param(i int, v any) error {
	if i >= len(r.Params) {
		return fmt.Errorf("%w: %s expects parameter %d", ErrInvalidParams, r.Method, i)
	}
	if err := json.Unmarshal(r.Params[i], v); err != nil {
		return fmt.Errorf("%w: %s parameter %d: %v", ErrInvalidParams, r.Method, i, err)
	}
	return nil
}

// Response answers one Request. Exactly one of Result and Error is set.
type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// NewResult builds a successful response.
func NewResult(id string, v any) (*Response, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &Response{ID: id, Result: data}, nil
}

// NewErrorResponse builds a failed response, classifying err into a code.
func NewErrorResponse(id string, err error) *Response {
	return &Response{ID: id, Error: ErrorFrom(err)}
}

// ParseResult decodes the result into v, or returns the remote error.
func (r *Response) ParseResult(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if v == nil {
		return nil
	}
	if len(r.Result) == 0 {
		return fmt.Errorf("%w: empty result", ErrTransport)
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrTransport, err)
	}
	return nil
}

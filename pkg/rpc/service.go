package rpc

import "github.com/teslashibe/go-nao/pkg/keyframes"

// Service is the server-side implementation of the catalogue.
type Service interface {
	GetAngle(joint string) (float64, error)
	SetAngle(joint string, angle float64) error
	GetPosture() (string, error)
	ExecuteKeyframes(kf keyframes.Keyframes) error
	GetTransform(name string) (string, error)
	SetTransform(effector string, transform string) error
}

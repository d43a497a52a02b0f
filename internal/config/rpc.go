// Package config provides configuration helpers for go-nao commands.
// Values come from environment variables with fixed defaults; command
// flags override them.
package config

import (
	"net"
	"os"
	"strconv"
	"time"
)

// Default RPC endpoint and control loop settings.
const (
	DefaultRPCHost     = "localhost"
	DefaultRPCPort     = 8000
	DefaultControlRate = 20 * time.Millisecond
)

// Environment variables read by the helpers below.
const (
	EnvRPCHost   = "NAO_RPC_HOST"
	EnvRPCPort   = "NAO_RPC_PORT"
	EnvBodyModel = "NAO_BODY_MODEL"
)

// RPCHost returns the RPC host from NAO_RPC_HOST or DefaultRPCHost.
func RPCHost() string {
	if host := os.Getenv(EnvRPCHost); host != "" {
		return host
	}
	return DefaultRPCHost
}

// RPCPort returns the RPC port from NAO_RPC_PORT or DefaultRPCPort.
// Unparseable values fall back to the default.
func RPCPort() int {
	if raw := os.Getenv(EnvRPCPort); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 && port < 65536 {
			return port
		}
	}
	return DefaultRPCPort
}

// BodyModelPath returns the body model file from NAO_BODY_MODEL.
// Empty means the embedded default model.
func BodyModelPath() string {
	return os.Getenv(EnvBodyModel)
}

// Addr joins host and port into a dial/listen address.
func Addr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// RPCURL returns the base HTTP URL of an RPC server.
func RPCURL(host string, port int) string {
	return "http://" + Addr(host, port)
}

// StreamURL returns the websocket URL of the transform stream.
func StreamURL(host string, port int) string {
	return "ws://" + Addr(host, port) + "/ws/transforms"
}

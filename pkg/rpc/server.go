package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/hub"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/motion"
)

// handlerFunc executes one decoded request against the service.
type handlerFunc func(req *Request) (any, error)

// Server exposes a Service over HTTP. Every request is handled on its own
// goroutine, so a blocking execute_keyframes never delays other calls.
type Server struct {
	app      *fiber.App
	svc      Service
	addr     string
	handlers map[Method]handlerFunc
	stream   *hub.Hub
	logger   *slog.Logger

	mu       sync.Mutex
	ln       net.Listener
	hubOnce  sync.Once
	stopOnce sync.Once
}

// NewServer creates a server for svc that will listen on addr.
func NewServer(svc Service, addr string) *Server {
	s := &Server{
		svc:    svc,
		addr:   addr,
		stream: hub.New("transforms"),
		logger: log.Component("rpc-server"),
	}
	s.registerHandlers()

	app := fiber.New(fiber.Config{
		AppName:               "go-nao",
		DisableStartupMessage: true,
	})

	app.Post("/rpc", s.handleRPC)

	api := app.Group("/api")
	api.Get("/methods", s.handleMethods)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/transforms", websocket.New(s.handleTransformsWS))

	s.app = app
	return s
}

// registerHandlers binds every catalogue operation to the service.
func (s *Server) registerHandlers() {
	s.handlers = map[Method]handlerFunc{
		MethodGetAngle: func(req *Request) (any, error) {
			var joint string
			if err := req.Param(0, &joint); err != nil {
				return nil, err
			}
			return s.svc.GetAngle(joint)
		},
		MethodSetAngle: func(req *Request) (any, error) {
			var joint string
			var angle float64
			if err := req.Param(0, &joint); err != nil {
				return nil, err
			}
			if err := req.Param(1, &angle); err != nil {
				return nil, err
			}
			return true, s.svc.SetAngle(joint, angle)
		},
		MethodGetPosture: func(req *Request) (any, error) {
			return s.svc.GetPosture()
		},
		MethodExecuteKeyframes: func(req *Request) (any, error) {
			var kf keyframes.Keyframes
			if err := req.Param(0, &kf); err != nil {
				return nil, err
			}
			return true, s.svc.ExecuteKeyframes(kf)
		},
		MethodGetTransform: func(req *Request) (any, error) {
			var name string
			if err := req.Param(0, &name); err != nil {
				return nil, err
			}
			return s.svc.GetTransform(name)
		},
		MethodSetTransform: func(req *Request) (any, error) {
			var effector, transform string
			if err := req.Param(0, &effector); err != nil {
				return nil, err
			}
			if err := req.Param(1, &transform); err != nil {
				return nil, err
			}
			return true, s.svc.SetTransform(effector, transform)
		},
	}
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Dispatch executes req and builds its response.
func (s *Server) Dispatch(req *Request) *Response {
	start := time.Now()

	handler, ok := s.handlers[req.Method]
	if !ok {
		return NewErrorResponse(req.ID, fmt.Errorf("%w: %q", ErrMethodNotFound, req.Method))
	}

	result, err := handler(req)
	if err != nil {
		resp := NewErrorResponse(req.ID, err)
		s.logger.Debug("call failed",
			"method", req.Method, "id", req.ID, "code", resp.Error.Code, "elapsed", time.Since(start))
		return resp
	}

	resp, err := NewResult(req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, err)
	}
	s.logger.Debug("call served", "method", req.Method, "id", req.ID, "elapsed", time.Since(start))
	return resp
}

func (s *Server) handleRPC(c *fiber.Ctx) error {
	var req Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(
			NewErrorResponse("", fmt.Errorf("%w: %v", ErrInvalidParams, err)))
	}
	return c.JSON(s.Dispatch(&req))
}

func (s *Server) handleMethods(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"methods": Methods})
}

func (s *Server) handleTransformsWS(conn *websocket.Conn) {
	if client := hub.NewClient(s.stream, conn); client != nil {
		client.Run()
	}
}

// Publish streams one cycle frame to transform subscribers. It matches the
// motion.Loop cycle callback and never blocks.
func (s *Server) Publish(frame motion.Frame) {
	if s.stream.ClientCount() == 0 {
		return
	}
	if err := s.stream.BroadcastJSON(frame); err != nil {
		s.logger.Warn("encode frame failed", "err", err)
	}
}

// Subscribers returns the number of transform stream subscribers.
func (s *Server) Subscribers() int {
	return s.stream.ClientCount()
}

// Serve serves on ln until Shutdown. It blocks.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.hubOnce.Do(func() { go s.stream.Run() })

	s.logger.Info("rpc server listening", "addr", ln.Addr().String(), "methods", len(s.handlers))
	return s.app.Listener(ln)
}

// Listen binds the configured address and serves. It blocks.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// StartAsync binds the configured address and serves on a dedicated
// goroutine. Bind errors are returned; later serve errors are logged.
func (s *Server) StartAsync() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	go func() {
		if err := s.Serve(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("rpc server stopped", "err", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before serving.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// Shutdown stops serving and disconnects stream subscribers.
func (s *Server) Shutdown() error {
	var err error
	s.stopOnce.Do(func() {
		s.stream.Stop()
		err = s.app.Shutdown()
	})
	return err
}

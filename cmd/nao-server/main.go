// Command nao-server runs the control loop of a simulated NAO body and
// serves the remote control protocol for it.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-nao/internal/config"
	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/agent"
	"github.com/teslashibe/go-nao/pkg/kinematics"
	"github.com/teslashibe/go-nao/pkg/motion"
	"github.com/teslashibe/go-nao/pkg/rpc"
)

func main() {
	host := flag.String("host", config.RPCHost(), "Listen host (or set NAO_RPC_HOST)")
	port := flag.Int("port", config.RPCPort(), "Listen port (or set NAO_RPC_PORT)")
	modelPath := flag.String("model", config.BodyModelPath(), "Body model TOML file (or set NAO_BODY_MODEL; empty uses the built-in NAO model)")
	rate := flag.Duration("rate", config.DefaultControlRate, "Control cycle period")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	model := kinematics.DefaultModel()
	if *modelPath != "" {
		m, err := kinematics.LoadModel(*modelPath)
		if err != nil {
			log.Error("load body model", "path", *modelPath, "err", err)
			os.Exit(1)
		}
		model = m
	}

	body := motion.NewMirrorBody(model)
	nao := agent.New(model, body, agent.Options{Rate: *rate})

	addr := config.Addr(*host, *port)
	server := rpc.NewServer(nao, addr)
	nao.Loop().OnCycle(server.Publish)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go nao.Run()
	defer nao.Stop()

	if err := server.StartAsync(); err != nil {
		log.Error("start rpc server", "err", err)
		os.Exit(1)
	}
	log.Info("nao agent ready",
		"rpc", config.RPCURL(*host, *port),
		"stream", config.StreamURL(*host, *port),
		"joints", len(model.JointNames()),
		"chains", len(model.Chains()))

	<-ctx.Done()
	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Warn("rpc server shutdown", "err", err)
	}
}

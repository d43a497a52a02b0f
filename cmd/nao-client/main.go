// Command nao-client drives a nao-server: it reads and writes joint angles,
// plays a keyframe motion without blocking and optionally follows the
// transform stream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-nao/internal/config"
	"github.com/teslashibe/go-nao/internal/log"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/motion"
	"github.com/teslashibe/go-nao/pkg/rpc"
)

// postSettle covers the round trip of a posted call beyond its motion time.
const postSettle = 500 * time.Millisecond

func main() {
	host := flag.String("host", config.RPCHost(), "Server host (or set NAO_RPC_HOST)")
	port := flag.Int("port", config.RPCPort(), "Server port (or set NAO_RPC_PORT)")
	motionName := flag.String("motion", "hello", "Built-in motion to play")
	watch := flag.Bool("watch", false, "Follow the transform stream after the demo")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log.Init(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := rpc.Dial(config.RPCURL(*host, *port))

	err := run(ctx, client, *motionName)
	if err == nil && *watch {
		err = rpc.WatchTransforms(ctx, config.StreamURL(*host, *port), printFrame)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}

	if cerr := client.Close(); cerr != nil {
		log.Warn("close client", "err", cerr)
	}
	if err != nil {
		log.Error("nao-client failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, client *rpc.Client, motionName string) error {
	angle, err := client.GetAngle(ctx, "HeadYaw")
	if err != nil {
		return fmt.Errorf("get_angle: %w", err)
	}
	fmt.Printf("HeadYaw: %.3f rad\n", angle)

	if err := client.SetAngle(ctx, "HeadYaw", 0.5); err != nil {
		return fmt.Errorf("set_angle: %w", err)
	}
	time.Sleep(100 * time.Millisecond)

	angle, err = client.GetAngle(ctx, "HeadYaw")
	if err != nil {
		return fmt.Errorf("get_angle: %w", err)
	}
	fmt.Printf("HeadYaw after set_angle: %.3f rad\n", angle)

	posture, err := client.GetPosture(ctx)
	if err != nil {
		return fmt.Errorf("get_posture: %w", err)
	}
	fmt.Printf("Posture: %s\n", posture)

	m, err := keyframes.LoadEmbedded(motionName)
	if err != nil {
		return err
	}
	start := time.Now()
	if err := client.Post().ExecuteKeyframes(m.Keyframes); err != nil {
		return fmt.Errorf("post execute_keyframes: %w", err)
	}
	fmt.Printf("Posted %q (%v) in %v\n", m.Name, m.Keyframes.Duration(), time.Since(start))

	t, err := client.GetTransform(ctx, "HeadPitch")
	if err != nil {
		return fmt.Errorf("get_transform: %w", err)
	}
	p := t.Position()
	fmt.Printf("HeadPitch position: (%.3f, %.3f, %.3f)\n", p.X, p.Y, p.Z)

	// Keep the client open until the posted call has returned; Close cancels
	// calls still in flight.
	select {
	case <-ctx.Done():
	case <-time.After(m.Keyframes.Duration() + postSettle):
	}
	return nil
}

func printFrame(f motion.Frame) {
	hand := f.Positions["LElbowRoll"]
	fmt.Printf("cycle %d  %-10s  LArm tip (%.3f, %.3f, %.3f)\n", f.Cycle, f.Posture, hand.X, hand.Y, hand.Z)
}

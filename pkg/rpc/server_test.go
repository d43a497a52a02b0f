package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-nao/pkg/agent"
	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/kinematics"
	"github.com/teslashibe/go-nao/pkg/motion"
)

var _ Service = (*agent.Agent)(nil)

// testEnv is a running agent and server on an ephemeral port.
type testEnv struct {
	agent  *agent.Agent
	server *Server
	base   string
}

func newTestAgent() *agent.Agent {
	model := kinematics.DefaultModel()
	return agent.New(model, motion.NewMirrorBody(model), agent.Options{Rate: 5 * time.Millisecond})
}

func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	a := newTestAgent()
	srv := NewServer(a, "127.0.0.1:0")
	a.Loop().OnCycle(srv.Publish)

	go a.Run()
	t.Cleanup(a.Stop)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	require.Eventually(t, func() bool { return a.Loop().Cycles() > 0 }, time.Second, time.Millisecond)
	return &testEnv{agent: a, server: srv, base: "http://" + ln.Addr().String()}
}

// postRPC sends req through the fiber app without a network listener.
func postRPC(t *testing.T, srv *Server, body []byte) (int, Response) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/rpc", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out Response
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func mustRequest(t *testing.T, method Method, params ...any) []byte {
	t.Helper()
	req, err := NewRequest(method, params...)
	require.NoError(t, err)
	data, err := json.Marshal(req)
	require.NoError(t, err)
	return data
}

func TestServer_Methods(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/api/methods", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Methods []Method `json:"methods"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, Methods, body.Methods)
	assert.Len(t, srv.handlers, len(Methods))
}

func TestServer_GetPosture(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")

	status, resp := postRPC(t, srv, mustRequest(t, MethodGetPosture))
	assert.Equal(t, http.StatusOK, status)
	require.Nil(t, resp.Error)

	var posture string
	require.NoError(t, resp.ParseResult(&posture))
	assert.Equal(t, motion.PostureUnknown, posture)
}

func TestServer_ErrorCodes(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")

	tests := []struct {
		name string
		body []byte
		code Code
	}{
		{"unknown joint", mustRequest(t, MethodGetAngle, "Tail"), CodeUnknownJoint},
		{"no reading", mustRequest(t, MethodGetAngle, "HeadYaw"), CodeNoReading},
		{"missing param", mustRequest(t, MethodSetAngle, "HeadYaw"), CodeInvalidParams},
		{"wrong param type", mustRequest(t, MethodGetTransform, 3), CodeInvalidParams},
		{"malformed transform", mustRequest(t, MethodSetTransform, "LArm", "[[1,0],[0,1]]"), CodeMalformedTransform},
		{"unknown effector", mustRequest(t, MethodSetTransform, "Tail", mustEncode(t, kinematics.Identity())), CodeUnknownEffector},
		{"no solver", mustRequest(t, MethodSetTransform, "LArm", mustEncode(t, kinematics.Identity())), CodeUnavailable},
		{"unknown method", mustRequest(t, Method("reboot")), CodeMethodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := postRPC(t, srv, tt.body)
			assert.Equal(t, http.StatusOK, status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Empty(t, resp.Result)
		})
	}
}

func TestServer_RejectsBadEnvelope(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")

	status, resp := postRPC(t, srv, []byte(`{not json`))
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidParams, resp.Error.Code)
}

func TestServer_WebsocketRequiresUpgrade(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/ws/transforms", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestServer_StartAsyncAndShutdown(t *testing.T) {
	srv := NewServer(newTestAgent(), "127.0.0.1:0")
	require.NoError(t, srv.StartAsync())

	require.Eventually(t, func() bool { return srv.Addr() != "127.0.0.1:0" }, time.Second, time.Millisecond)
	client := Dial("http://" + srv.Addr())
	defer client.Close()

	require.Eventually(t, func() bool {
		_, err := client.GetPosture(t.Context())
		return err == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, srv.Shutdown())
	require.NoError(t, srv.Shutdown())

	_, err := client.GetPosture(t.Context())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestServer_ExecuteDoesNotBlockOtherCalls(t *testing.T) {
	env := startTestServer(t)
	client := Dial(env.base)
	defer client.Close()

	kf := keyframes.Keyframes{
		Names: []string{"HeadYaw"},
		Times: [][]float64{{0.4}},
		Keys:  [][]keyframes.Key{{{Angle: 0.2}}},
	}

	executed := make(chan time.Duration, 1)
	go func() {
		start := time.Now()
		if err := client.ExecuteKeyframes(t.Context(), kf); err != nil {
			t.Errorf("ExecuteKeyframes: %v", err)
		}
		executed <- time.Since(start)
	}()

	require.Eventually(t, func() bool {
		return env.agent.Loop().Coordinator().State() == motion.StateRunning
	}, time.Second, time.Millisecond)

	start := time.Now()
	_, err := client.GetPosture(t.Context())
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, motion.StateRunning, env.agent.Loop().Coordinator().State())

	elapsed := <-executed
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
}

func mustEncode(t *testing.T, tr kinematics.Transform) string {
	t.Helper()
	text, err := kinematics.Encode(tr)
	require.NoError(t, err)
	return text
}

package agent

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-nao/pkg/keyframes"
	"github.com/teslashibe/go-nao/pkg/kinematics"
	"github.com/teslashibe/go-nao/pkg/motion"
)

type stubSolver struct {
	effector string
	target   kinematics.Transform
	result   map[string]float64
	err      error
}

func (s *stubSolver) Solve(effector string, target kinematics.Transform) (map[string]float64, error) {
	s.effector = effector
	s.target = target
	return s.result, s.err
}

func newTestAgent(t *testing.T, solver Solver) (*Agent, *motion.MirrorBody) {
	t.Helper()
	model := kinematics.DefaultModel()
	body := motion.NewMirrorBody(model)
	a := New(model, body, Options{Rate: 5 * time.Millisecond, Solver: solver})
	return a, body
}

// cycle advances the control loop by n cycles.
func cycle(a *Agent, n int) {
	for i := 0; i < n; i++ {
		a.Loop().Step()
	}
}

func TestGetAngle(t *testing.T) {
	a, _ := newTestAgent(t, nil)

	_, err := a.GetAngle("HeadYaw")
	assert.ErrorIs(t, err, ErrNoReading)

	cycle(a, 1)
	got, err := a.GetAngle("HeadYaw")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	_, err = a.GetAngle("Tail")
	assert.ErrorIs(t, err, kinematics.ErrUnknownJoint)
	assert.False(t, errors.Is(err, ErrNoReading))
}

func TestSetAngleThenGetAngle(t *testing.T) {
	a, _ := newTestAgent(t, nil)
	cycle(a, 1)

	require.NoError(t, a.SetAngle("HeadYaw", 1.0))
	cycle(a, 2)

	got, err := a.GetAngle("HeadYaw")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	assert.ErrorIs(t, a.SetAngle("Tail", 1), kinematics.ErrUnknownJoint)
}

func TestGetPosture(t *testing.T) {
	a, _ := newTestAgent(t, nil)
	got, err := a.GetPosture()
	require.NoError(t, err)
	assert.Equal(t, motion.PostureUnknown, got)
}

func TestGetTransform(t *testing.T) {
	a, _ := newTestAgent(t, nil)
	cycle(a, 1)

	text, err := a.GetTransform("HeadPitch")
	require.NoError(t, err)
	got, err := kinematics.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, kinematics.Identity(), got)

	text, err = a.GetTransform("LHand")
	require.NoError(t, err)
	got, err = kinematics.Decode(text)
	require.NoError(t, err)
	assert.Equal(t, kinematics.Identity(), got)

	_, err = a.GetTransform("Tail")
	assert.ErrorIs(t, err, kinematics.ErrUnknownJoint)
}

func TestExecuteKeyframes(t *testing.T) {
	a, body := newTestAgent(t, nil)
	kf := keyframes.Keyframes{
		Names: []string{"HeadPitch"},
		Times: [][]float64{{0.05, 0.1}},
		Keys:  [][]keyframes.Key{{{Angle: 0.1}, {Angle: 0.3}}},
	}

	start := time.Now()
	require.NoError(t, a.ExecuteKeyframes(kf))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	cycle(a, 1)
	assert.Equal(t, 0.3, body.JointAngles()["HeadPitch"])
}

func TestSetTransform(t *testing.T) {
	solver := &stubSolver{result: map[string]float64{"LShoulderPitch": 0.4, "LElbowRoll": -0.2}}
	a, body := newTestAgent(t, solver)

	target := kinematics.Identity()
	target[0][3] = 0.15
	text, err := kinematics.Encode(target)
	require.NoError(t, err)

	require.NoError(t, a.SetTransform("LArm", text))
	assert.Equal(t, "LArm", solver.effector)
	assert.Equal(t, target, solver.target)

	cycle(a, 1)
	angles := body.JointAngles()
	assert.Equal(t, 0.4, angles["LShoulderPitch"])
	assert.Equal(t, -0.2, angles["LElbowRoll"])
}

func TestSetTransform_Errors(t *testing.T) {
	identity, err := kinematics.Encode(kinematics.Identity())
	require.NoError(t, err)

	a, _ := newTestAgent(t, nil)
	assert.ErrorIs(t, a.SetTransform("LArm", "[[1,2]]"), kinematics.ErrMalformedTransform)
	assert.ErrorIs(t, a.SetTransform("Tail", identity), ErrUnknownEffector)
	assert.ErrorIs(t, a.SetTransform("LArm", identity), ErrNoSolver)

	failing := &stubSolver{err: errors.New("unreachable")}
	a, _ = newTestAgent(t, failing)
	assert.ErrorContains(t, a.SetTransform("RArm", identity), "unreachable")

	bogus := &stubSolver{result: map[string]float64{"Tail": 1}}
	a, _ = newTestAgent(t, bogus)
	assert.ErrorIs(t, a.SetTransform("RArm", identity), kinematics.ErrUnknownJoint)
}

func TestRunStop(t *testing.T) {
	a, _ := newTestAgent(t, nil)

	done := make(chan struct{})
	go func() {
		a.Run()
		close(done)
	}()

	require.Eventually(t, func() bool { return a.Loop().Cycles() > 2 }, time.Second, time.Millisecond)
	a.Stop()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("agent did not stop")
	}
}

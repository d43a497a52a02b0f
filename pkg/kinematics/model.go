package kinematics

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed nao.toml
var naoModel string

// Chain is an ordered sequence of joints, base first.
type Chain struct {
	name   string
	joints []Joint
}

// Name returns the chain name (e.g. "LArm").
func (c Chain) Name() string { return c.name }

// Joints returns a copy of the chain's joints in composition order.
func (c Chain) Joints() []Joint {
	out := make([]Joint, len(c.joints))
	copy(out, c.joints)
	return out
}

// Model describes a body: its chains and any actuated joints outside them.
// A Model is immutable after construction.
type Model struct {
	chains []Chain
	extra  []string
	joints map[string]Joint // chain joints only
	known  map[string]bool  // chain joints and extras
}

// modelFile is the TOML layout of a body model.
type modelFile struct {
	Extra  []string    `toml:"extra"`
	Chains []chainFile `toml:"chain"`
}

type chainFile struct {
	Name   string      `toml:"name"`
	Joints []jointFile `toml:"joints"`
}

type jointFile struct {
	Name   string  `toml:"name"`
	Length float64 `toml:"length"`
}

// DefaultModel returns the embedded NAO body model.
func DefaultModel() *Model {
	m, err := ParseModel(naoModel)
	if err != nil {
		panic(fmt.Sprintf("kinematics: embedded model invalid: %v", err))
	}
	return m
}

// LoadModel reads a TOML body model from disk.
func LoadModel(path string) (*Model, error) {
	var f modelFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("model load failed (%s): %w", path, err)
	}
	return newModel(f)
}

// ParseModel parses a TOML body model.
func ParseModel(data string) (*Model, error) {
	var f modelFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("model parse failed: %w", err)
	}
	return newModel(f)
}

func newModel(f modelFile) (*Model, error) {
	if len(f.Chains) == 0 {
		return nil, fmt.Errorf("%w: no chains defined", ErrInvalidModel)
	}

	m := &Model{
		joints: make(map[string]Joint),
		known:  make(map[string]bool),
	}
	chainNames := make(map[string]bool)

	for _, cf := range f.Chains {
		if cf.Name == "" {
			return nil, fmt.Errorf("%w: chain without a name", ErrInvalidModel)
		}
		if chainNames[cf.Name] {
			return nil, fmt.Errorf("%w: duplicate chain %q", ErrInvalidModel, cf.Name)
		}
		if len(cf.Joints) == 0 {
			return nil, fmt.Errorf("%w: chain %q has no joints", ErrInvalidModel, cf.Name)
		}
		chainNames[cf.Name] = true

		c := Chain{name: cf.Name, joints: make([]Joint, 0, len(cf.Joints))}
		for _, jf := range cf.Joints {
			if jf.Name == "" {
				return nil, fmt.Errorf("%w: unnamed joint in chain %q", ErrInvalidModel, cf.Name)
			}
			if m.known[jf.Name] {
				return nil, fmt.Errorf("%w: joint %q appears more than once", ErrInvalidModel, jf.Name)
			}
			j := Joint{Name: jf.Name, Length: jf.Length}
			c.joints = append(c.joints, j)
			m.joints[j.Name] = j
			m.known[j.Name] = true
		}
		m.chains = append(m.chains, c)
	}

	for _, name := range f.Extra {
		if name == "" || m.known[name] {
			return nil, fmt.Errorf("%w: bad extra joint %q", ErrInvalidModel, name)
		}
		m.extra = append(m.extra, name)
		m.known[name] = true
	}

	return m, nil
}

// Chains returns the model's chains in declaration order.
func (m *Model) Chains() []Chain {
	out := make([]Chain, len(m.chains))
	copy(out, m.chains)
	return out
}

// Chain returns the chain with the given name.
func (m *Model) Chain(name string) (Chain, bool) {
	for _, c := range m.chains {
		if c.name == name {
			return c, true
		}
	}
	return Chain{}, false
}

// Joint returns a chain joint by name.
func (m *Model) Joint(name string) (Joint, bool) {
	j, ok := m.joints[name]
	return j, ok
}

// HasJoint reports whether name is any actuated joint of the body,
// including joints outside the chains.
func (m *Model) HasJoint(name string) bool {
	return m.known[name]
}

// JointNames returns every actuated joint: chain joints in chain order, then extras.
func (m *Model) JointNames() []string {
	names := make([]string, 0, len(m.known))
	for _, c := range m.chains {
		for _, j := range c.joints {
			names = append(names, j.Name)
		}
	}
	return append(names, m.extra...)
}

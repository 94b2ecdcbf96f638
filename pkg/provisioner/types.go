// Package provisioner implements the sequential install pipeline for the
// bot's runtime dependencies. Steps run strictly in order through a
// mvdan.cc/sh shell runtime and the whole pipeline aborts on the first
// failing command.
package provisioner

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"
)

// Step is one provisioning operation: an ordered list of shell commands
// that must all succeed before the next step may start.
type Step struct {
	Env  map[string]string
	Name string
	Desc string
	Base string
	Cmds []string
}

// StepList keeps the execution order; the provisioner never reorders steps.
type StepList []*Step

func (s *Step) String() string {
	return fmt.Sprintf("<Step %s: %s>", s.Name, s.Desc)
}

func (s *Step) shellStmts(parser *syntax.Parser, idx int) ([]*syntax.Stmt, error) {
	reader := strings.NewReader(s.Cmds[idx])
	result, err := parser.Parse(reader, fmt.Sprintf("%s:%d", s.Name, idx))
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse command %s", s.Cmds[idx])
	}

	return result.Stmts, nil
}

// Phase tracks how far a run got. The zero value is PhaseInit; every
// successfully completed step advances the phase by one. There is no
// transition backwards.
type Phase int

const (
	PhaseInit Phase = iota
	PhasePythonDepsDone
	PhaseSystemDepsDone
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhasePythonDepsDone:
		return "python-deps-done"
	case PhaseSystemDepsDone:
		return "system-deps-done"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

package provisioner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Professor414/Text2PDF/pkg/syspkg"
)

func testCtx() context.Context {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return WithLogger(context.Background(), &logger)
}

func TestRunSequential(t *testing.T) {
	dir := t.TempDir()
	steps := StepList{
		{Name: "one", Desc: "first", Base: dir, Cmds: []string{"printf 1 > one.txt"}},
		{Name: "two", Desc: "second", Base: dir, Cmds: []string{"printf 2 > two.txt"}},
	}

	phase, err := Run(testCtx(), steps, false)
	require.NoError(t, err)
	assert.Equal(t, Phase(2), phase)

	for _, name := range []string{"one.txt", "two.txt"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestRunFailFast(t *testing.T) {
	dir := t.TempDir()
	steps := StepList{
		{Name: "one", Desc: "first", Base: dir, Cmds: []string{"exit 3"}},
		{Name: "two", Desc: "second", Base: dir, Cmds: []string{"printf 2 > two.txt"}},
	}

	phase, err := Run(testCtx(), steps, false)
	require.Error(t, err)
	assert.Equal(t, PhaseInit, phase)
	assert.Equal(t, 3, ExitStatus(err))

	_, statErr := os.Stat(filepath.Join(dir, "two.txt"))
	assert.True(t, os.IsNotExist(statErr), "second step must never run")
}

func TestRunAbortsWithinStep(t *testing.T) {
	dir := t.TempDir()
	steps := StepList{
		{Name: "one", Desc: "first", Base: dir, Cmds: []string{
			"printf 1 > one.txt",
			"exit 7",
			"printf never > never.txt",
		}},
	}

	phase, err := Run(testCtx(), steps, false)
	require.Error(t, err)
	assert.Equal(t, PhaseInit, phase)
	assert.Equal(t, 7, ExitStatus(err))

	_, statErr := os.Stat(filepath.Join(dir, "one.txt"))
	assert.NoError(t, statErr, "commands before the failure still ran")

	_, statErr = os.Stat(filepath.Join(dir, "never.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunDry(t *testing.T) {
	dir := t.TempDir()
	steps := StepList{
		{Name: "one", Desc: "first", Base: dir, Cmds: []string{"printf 1 > one.txt"}},
	}

	phase, err := Run(testCtx(), steps, true)
	require.NoError(t, err)
	assert.Equal(t, Phase(1), phase)

	_, statErr := os.Stat(filepath.Join(dir, "one.txt"))
	assert.True(t, os.IsNotExist(statErr), "dry runs must not execute anything")
}

func TestRunStepEnv(t *testing.T) {
	dir := t.TempDir()
	steps := StepList{
		{
			Name: "one",
			Desc: "first",
			Base: dir,
			Env:  map[string]string{"PROVISION_PROBE": "khmer"},
			Cmds: []string{`printf "$PROVISION_PROBE" > env.txt`},
		},
	}

	_, err := Run(testCtx(), steps, false)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "env.txt"))
	require.NoError(t, err)
	assert.Equal(t, "khmer", string(data))
}

func TestRunRejectsBrokenShell(t *testing.T) {
	steps := StepList{
		{Name: "one", Desc: "first", Base: t.TempDir(), Cmds: []string{"if then fi"}},
	}

	_, err := Run(testCtx(), steps, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestExitStatus(t *testing.T) {
	assert.Equal(t, 0, ExitStatus(nil))
	assert.Equal(t, 1, ExitStatus(assert.AnError))
}

func TestJoinArgvQuoting(t *testing.T) {
	cmd, err := JoinArgv([]string{"pip3", "install", "-r", "my deps/requirements.txt"})
	require.NoError(t, err)
	assert.Equal(t, `pip3 install -r 'my deps/requirements.txt'`, cmd)
}

func TestPythonDepsStep(t *testing.T) {
	step, err := PythonDepsStep("pip3", "requirements.txt", ".")
	require.NoError(t, err)

	assert.Equal(t, "pydeps", step.Name)
	require.Len(t, step.Cmds, 1)
	assert.Equal(t, "pip3 install -r requirements.txt", step.Cmds[0])
}

func TestSystemDepsStep(t *testing.T) {
	step, err := SystemDepsStep(syspkg.NewManager(), ".")
	require.NoError(t, err)

	assert.Equal(t, "sysdeps", step.Name)
	assert.Equal(t, "noninteractive", step.Env["DEBIAN_FRONTEND"])

	// index refresh and install stay separate commands so a failed refresh
	// aborts before any package is touched
	require.Len(t, step.Cmds, 2)
	assert.Equal(t, "apt-get update", step.Cmds[0])
	assert.Contains(t, step.Cmds[1], "apt-get install -y")
	for _, name := range syspkg.Packages {
		assert.Contains(t, step.Cmds[1], name)
	}
}

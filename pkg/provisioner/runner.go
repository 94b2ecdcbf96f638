package provisioner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

func getStepEnv(step *Step) expand.Environ {
	envVars := os.Environ()

	for name, value := range step.Env {
		envVars = append(envVars, fmt.Sprintf("%s=%s", name, value))
	}

	return expand.ListEnviron(envVars...)
}

var defaultOpenHandler = interp.DefaultOpenHandler()

func openHandler(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if path == "/dev/null" {
		path = os.DevNull
	}

	return defaultOpenHandler(ctx, path, flag, perm)
}

// ExitStatus extracts the status code of the failing shell command from an
// error returned by Run. The fallback is 1 which matches what a shell
// returns for errors that never reached an external command.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}

	if status, ok := interp.IsExitStatus(err); ok {
		return int(status)
	}

	return 1
}

// Run executes the given steps strictly in order and aborts on the first
// failing command. The returned phase records how many steps completed; on
// success it equals Phase(len(steps)).
func Run(ctx context.Context, steps StepList, dryRun bool) (Phase, error) {
	phase := PhaseInit

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return phase, err
		}

		err := runStep(ctx, step, dryRun)
		if err != nil {
			log(ctx).Error().
				Str("step", step.Name).
				Str("phase", phase.String()).
				Msg("aborting; no later step will run")
			return phase, err
		}

		phase++
	}

	return phase, nil
}

func runStep(ctx context.Context, step *Step, dryRun bool) error {
	log(ctx).Info().
		Str("step", step.Name).
		Msg(step.Desc)

	runner, err := interp.New(
		interp.Dir(step.Base),
		interp.Env(getStepEnv(step)),
		interp.OpenHandler(openHandler),
		interp.StdIO(nil, os.Stdout, os.Stderr),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "Failed to initialize runner")
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter(
		syntax.Minify(true),
	)
	strBuffer := strings.Builder{}

	for idx := range step.Cmds {
		stmts, err := step.shellStmts(parser, idx)
		if err != nil {
			return err
		}

		for _, stm := range stmts {
			strBuffer.Reset()
			printer.Print(&strBuffer, stm)
			log(ctx).Info().
				Str("step", step.Name).
				Bool("command", true).
				Msg(strBuffer.String())

			if dryRun {
				continue
			}

			err = runner.Run(ctx, stm)
			if err != nil {
				return err
			}

			if runner.Exited() {
				return nil
			}
		}

		if err = ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}

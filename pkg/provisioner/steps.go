package provisioner

import (
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/syntax"

	"github.com/Professor414/Text2PDF/pkg/syspkg"
)

// JoinArgv renders an argv as a single shell command with every argument
// quoted for POSIX sh.
func JoinArgv(argv []string) (string, error) {
	quoted := make([]string, len(argv))
	for idx, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", eris.Wrapf(err, "Failed to quote argument %q", arg)
		}

		quoted[idx] = q
	}

	return strings.Join(quoted, " "), nil
}

// PythonDepsStep installs the bot's Python dependencies from the given
// manifest. This is the first operation of the pipeline; nothing else runs
// if it fails.
func PythonDepsStep(pipBin, manifest, base string) (*Step, error) {
	cmd, err := JoinArgv([]string{pipBin, "install", "-r", manifest})
	if err != nil {
		return nil, err
	}

	return &Step{
		Name: "pydeps",
		Desc: "Installing Python dependencies",
		Base: base,
		Cmds: []string{cmd},
	}, nil
}

// SystemDepsStep refreshes the package index and installs the native
// libraries WeasyPrint renders PDFs with, plus the Khmer font package.
// The index refresh and the install are separate commands so a refresh
// failure aborts before any package is touched.
func SystemDepsStep(mgr syspkg.Manager, base string) (*Step, error) {
	update, err := JoinArgv(mgr.UpdateArgv())
	if err != nil {
		return nil, err
	}

	install, err := JoinArgv(mgr.InstallArgv())
	if err != nil {
		return nil, err
	}

	return &Step{
		Name: "sysdeps",
		Desc: "Installing native system dependencies",
		Base: base,
		Env: map[string]string{
			"DEBIAN_FRONTEND": "noninteractive",
		},
		Cmds: []string{update, install},
	}, nil
}

// Package syspkg builds the apt-get command lines for the native
// dependencies and queries their install state through dpkg.
package syspkg

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// Packages is the exact set of Debian packages the bot needs beyond its
// Python dependencies: Pango and Cairo for WeasyPrint's PDF rendering and
// the KhmerOS fonts for Khmer glyph support.
var Packages = []string{
	"libpango-1.0-0",
	"libpangoft2-1.0-0",
	"libcairo2",
	"fonts-khmeros",
}

// Manager describes how to reach the host's package tooling. The zero
// value is not usable; use NewManager for the defaults.
type Manager struct {
	AptGet    string
	DpkgQuery string
	Sudo      bool
}

func NewManager() Manager {
	return Manager{
		AptGet:    "apt-get",
		DpkgQuery: "dpkg-query",
	}
}

func (m Manager) wrap(argv ...string) []string {
	if m.Sudo {
		return append([]string{"sudo"}, argv...)
	}

	return argv
}

// UpdateArgv returns the package index refresh command.
func (m Manager) UpdateArgv() []string {
	return m.wrap(m.AptGet, "update")
}

// InstallArgv returns the install command for the full native package set.
func (m Manager) InstallArgv() []string {
	return m.wrap(append([]string{m.AptGet, "install", "-y"}, Packages...)...)
}

// Status reflects dpkg's view of a single package.
type Status struct {
	Name      string
	Installed bool
}

// Query asks dpkg about each of the given packages. Packages dpkg has
// never heard of are reported as not installed instead of failing the
// whole query.
func (m Manager) Query(ctx context.Context, packages []string) ([]Status, error) {
	result := make([]Status, len(packages))

	for idx, name := range packages {
		result[idx].Name = name

		cmd := exec.CommandContext(ctx, m.DpkgQuery, "-W", "-f", "${Status}", name)
		var out bytes.Buffer
		cmd.Stdout = &out

		err := cmd.Run()
		if err != nil {
			var exitErr *exec.ExitError
			if eris.As(err, &exitErr) {
				// dpkg-query exits 1 for unknown packages
				continue
			}

			return nil, eris.Wrapf(err, "Failed to run %s", m.DpkgQuery)
		}

		result[idx].Installed = parseDpkgStatus(out.String())
	}

	return result, nil
}

func parseDpkgStatus(status string) bool {
	return strings.TrimSpace(status) == "install ok installed"
}

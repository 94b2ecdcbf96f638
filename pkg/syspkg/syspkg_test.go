package syspkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The native package set is part of the provisioning contract; a changed
// element here has to be a deliberate decision, not a refactoring accident.
func TestPackageSet(t *testing.T) {
	assert.Equal(t, []string{
		"libpango-1.0-0",
		"libpangoft2-1.0-0",
		"libcairo2",
		"fonts-khmeros",
	}, Packages)
}

func TestUpdateArgv(t *testing.T) {
	mgr := NewManager()
	assert.Equal(t, []string{"apt-get", "update"}, mgr.UpdateArgv())

	mgr.Sudo = true
	assert.Equal(t, []string{"sudo", "apt-get", "update"}, mgr.UpdateArgv())
}

func TestInstallArgv(t *testing.T) {
	mgr := NewManager()
	argv := mgr.InstallArgv()

	assert.Equal(t, []string{"apt-get", "install", "-y"}, argv[:3])
	assert.Equal(t, Packages, argv[3:])
}

func TestInstallArgvSudo(t *testing.T) {
	mgr := NewManager()
	mgr.Sudo = true

	argv := mgr.InstallArgv()
	assert.Equal(t, "sudo", argv[0])
	assert.Len(t, argv, 4+len(Packages))
}

func TestParseDpkgStatus(t *testing.T) {
	cases := []struct {
		status    string
		installed bool
	}{
		{"install ok installed", true},
		{"install ok installed\n", true},
		{"deinstall ok config-files", false},
		{"unknown ok not-installed", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.installed, parseDpkgStatus(tc.status), "status %q", tc.status)
	}
}

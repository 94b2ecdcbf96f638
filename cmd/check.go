package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Professor414/Text2PDF/pkg"
	"github.com/Professor414/Text2PDF/pkg/pipreq"
	"github.com/Professor414/Text2PDF/pkg/syspkg"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verifies the host without changing anything",
	Long: `Checks the provisioning preconditions: the manifest parses, the installer
binaries are on PATH and reports which of the native packages are already
installed. Never mutates package state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		failed := false

		pkg.PrintTask("Checking manifest")
		manifest, _, err := resolveManifest(cfg)
		if err != nil {
			return err
		}

		parsed, err := pipreq.Parse(manifest)
		if err != nil {
			pkg.PrintError(eris.ToString(err, false))
			failed = true
		} else {
			pkg.PrintSubtask(fmt.Sprintf("%s: %d requirements", manifest, len(parsed.Requirements)))
			for _, warning := range parsed.Lint() {
				pkg.PrintError(warning)
			}
		}

		pkg.PrintTask("Checking installer binaries")
		for _, bin := range []string{cfg.Pip, cfg.Apt.Get, cfg.Apt.DpkgQuery} {
			path, err := exec.LookPath(bin)
			if err != nil {
				pkg.PrintError(fmt.Sprintf("%s not found on PATH", bin))
				failed = true
			} else {
				pkg.PrintSubtask(fmt.Sprintf("%s: %s", bin, path))
			}
		}

		pkg.PrintTask("Checking native packages")
		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		statuses, err := packageManager(cfg).Query(ctx, syspkg.Packages)
		if err != nil {
			pkg.PrintError(eris.ToString(err, false))
			failed = true
		} else {
			for _, status := range statuses {
				if status.Installed {
					pkg.PrintSubtask(status.Name + ": installed")
				} else {
					pkg.PrintSubtask(status.Name + ": missing (sysdeps will install it)")
				}
			}
		}

		if failed {
			return eris.New("Preflight check failed")
		}

		pkg.PrintTask("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

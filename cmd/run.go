package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Professor414/Text2PDF/pkg/provisioner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Installs the Python and native dependencies",
	Long: `Runs the full provisioning pipeline: first the Python dependencies from
the requirements manifest, then the package index refresh and the native
packages. The steps run strictly in order and the first failing command
aborts everything after it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := newLogger(cfg)

		manifest, base, err := resolveManifest(cfg)
		if err != nil {
			return err
		}

		err = checkManifest(&logger, manifest)
		if err != nil {
			return err
		}

		pydeps, err := provisioner.PythonDepsStep(cfg.Pip, manifest, base)
		if err != nil {
			return err
		}

		sysdeps, err := provisioner.SystemDepsStep(packageManager(cfg), base)
		if err != nil {
			return err
		}

		executeSteps(cfg, &logger, provisioner.StepList{pydeps, sysdeps})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

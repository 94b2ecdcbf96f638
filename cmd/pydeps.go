package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Professor414/Text2PDF/pkg/provisioner"
)

var pydepsCmd = &cobra.Command{
	Use:   "pydeps",
	Short: "Installs only the Python dependencies",
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

		step, err := provisioner.PythonDepsStep(cfg.Pip, manifest, base)
		if err != nil {
			return err
		}

		executeSteps(cfg, &logger, provisioner.StepList{step})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pydepsCmd)
}

package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Professor414/Text2PDF/pkg/provisioner"
)

var sysdepsCmd = &cobra.Command{
	Use:   "sysdeps",
	Short: "Installs only the native system dependencies",
	Long: `Refreshes the package index and installs the native libraries WeasyPrint
needs (Pango, Cairo) and the KhmerOS font package. Requires apt and the
privileges to modify the package state; see --sudo.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := newLogger(cfg)

		base, err := os.Getwd()
		if err != nil {
			return err
		}

		step, err := provisioner.SystemDepsStep(packageManager(cfg), base)
		if err != nil {
			return err
		}

		executeSteps(cfg, &logger, provisioner.StepList{step})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sysdepsCmd)
}

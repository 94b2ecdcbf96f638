// Package cmd implements the provision CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provisioning tool for the Text2PDF bot",
	Long: `This command prepares a host for the Text2PDF Telegram bot.
It installs the Python dependencies from the requirements manifest and the
native libraries WeasyPrint needs to render Khmer PDFs (Pango, Cairo and
the KhmerOS font package).`,
}

var rootFlags struct {
	manifest string
	dryRun   bool
	json     bool
	sudo     bool
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.manifest, "manifest", "", "requirements manifest (default: requirements.txt in the project root)")
	pf.BoolVarP(&rootFlags.dryRun, "dry", "n", false, "dry run; only print the commands, don't execute anything")
	pf.BoolVar(&rootFlags.json, "json", false, "log JSON events instead of pretty console messages")
	pf.BoolVar(&rootFlags.sudo, "sudo", false, "prefix package manager invocations with sudo")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

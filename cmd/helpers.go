package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/Professor414/Text2PDF/pkg"
	"github.com/Professor414/Text2PDF/pkg/config"
	"github.com/Professor414/Text2PDF/pkg/pipreq"
	"github.com/Professor414/Text2PDF/pkg/provisioner"
	"github.com/Professor414/Text2PDF/pkg/syspkg"
)

func loadConfig() (*config.Config, error) {
	cfg, loader := config.Loader()
	err := loader.Load()
	if err != nil {
		return nil, eris.Wrap(err, "Failed to load configuration")
	}

	// command line flags win over file and environment
	if rootFlags.manifest != "" {
		cfg.Manifest = rootFlags.manifest
	}
	if rootFlags.sudo {
		cfg.Sudo = true
	}
	if rootFlags.json {
		cfg.Log.JSON = true
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.Log.JSON {
		return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(cfg.LogLevel())
	}

	return zerolog.New(NewConsoleWriter()).Level(cfg.LogLevel())
}

func packageManager(cfg *config.Config) syspkg.Manager {
	return syspkg.Manager{
		AptGet:    cfg.Apt.Get,
		DpkgQuery: cfg.Apt.DpkgQuery,
		Sudo:      cfg.Sudo,
	}
}

// resolveManifest determines the manifest path and the directory the steps
// run in. An explicit --manifest (or PROVISION_MANIFEST) skips project root
// discovery.
func resolveManifest(cfg *config.Config) (manifest string, base string, err error) {
	if cfg.Manifest != "" {
		manifest, err = filepath.Abs(cfg.Manifest)
		if err != nil {
			return "", "", eris.Wrapf(err, "Failed to resolve %s", cfg.Manifest)
		}

		return manifest, filepath.Dir(manifest), nil
	}

	base, err = pkg.GetProjectRoot()
	if err != nil {
		return "", "", err
	}

	return filepath.Join(base, "requirements.txt"), base, nil
}

// checkManifest enforces the precondition of the Python step: the manifest
// has to exist and parse before pip is invoked.
func checkManifest(logger *zerolog.Logger, manifest string) error {
	parsed, err := pipreq.Parse(manifest)
	if err != nil {
		return err
	}

	for _, warning := range parsed.Lint() {
		logger.Warn().Str("step", "pydeps").Msg(warning)
	}

	logger.Debug().
		Str("step", "pydeps").
		Int("requirements", len(parsed.Requirements)).
		Msgf("parsed %s", manifest)

	return nil
}

// executeSteps runs the pipeline and terminates the process on failure,
// propagating the exit status of the failing command.
func executeSteps(cfg *config.Config, logger *zerolog.Logger, steps provisioner.StepList) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.TimeoutMinutes)*time.Minute)
	defer cancel()

	ctx = provisioner.WithLogger(ctx, logger)

	phase, err := provisioner.Run(ctx, steps, rootFlags.dryRun)
	if err != nil {
		logger.Error().Err(err).Msgf("Provisioning failed in phase %s", phase)
		os.Exit(provisioner.ExitStatus(err))
	}

	logger.Info().Msgf("Provisioning finished (phase %s)", phase)
}

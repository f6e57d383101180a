// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/archive"
	"github.com/bureau-foundation/sora-sdk/lib/config"
	"github.com/bureau-foundation/sora-sdk/lib/deps"
	"github.com/bureau-foundation/sora-sdk/lib/fetch"
	"github.com/bureau-foundation/sora-sdk/lib/platform"
	"github.com/bureau-foundation/sora-sdk/lib/toolexec"
)

// commonFlags are accepted by every command that touches the deps
// directory. Non-empty values override the loaded configuration.
type commonFlags struct {
	configPath    string
	depsDir       string
	versionFile   string
	target        string
	ignoreVersion bool
	verbose       bool
}

func (f *commonFlags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.configPath, "config", "", "YAML config file (default: $"+config.EnvConfig+")")
	flagSet.StringVar(&f.depsDir, "deps-dir", "", "persistent deps directory (default: $"+deps.EnvDepsDir+", else a temporary directory)")
	flagSet.StringVar(&f.versionFile, "version-file", "", "KEY=value file pinning dependency versions (default: VERSION)")
	flagSet.StringVar(&f.target, "target", "", "package name to build for instead of the host (e.g. ubuntu-22.04_x86_64)")
	flagSet.BoolVar(&f.ignoreVersion, "ignore-version", false, "reinstall every dependency regardless of version markers")
	flagSet.BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
}

// loadConfig reads the config file and applies flag overrides.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if f.depsDir != "" {
		cfg.DepsDir = f.depsDir
	}
	if f.versionFile != "" {
		cfg.VersionFile = f.versionFile
	}
	if f.target != "" {
		cfg.Target = f.target
	}
	if f.ignoreVersion {
		cfg.IgnoreVersion = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// session is the resolved environment of one command run.
type session struct {
	config  *config.Config
	target  platform.Target
	layout  deps.Layout
	logger  *slog.Logger
	release func()
}

// open loads configuration, resolves the target and acquires the deps
// directory. The caller must defer close.
func (f *commonFlags) open() (*session, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.NewCommandLogger(f.verbose)

	target, err := resolveTarget(cfg.Target)
	if err != nil {
		return nil, err
	}
	directory, release, err := deps.AcquireDir(cfg.DepsDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("session ready", "target", target.PackageName(), "deps_dir", directory)
	return &session{
		config:  cfg,
		target:  target,
		layout:  deps.NewLayout(directory),
		logger:  logger,
		release: release,
	}, nil
}

func (s *session) close() { s.release() }

func resolveTarget(packageName string) (platform.Target, error) {
	if packageName != "" {
		return platform.Parse(packageName)
	}
	return platform.Resolve()
}

// runner streams subprocess output to stderr so long builds show
// progress.
func (s *session) runner() toolexec.Runner {
	return &toolexec.Exec{Output: os.Stderr, FallbackDirs: s.config.Build.ToolDirs, Logger: s.logger}
}

func (s *session) installer(versions deps.Versions) *deps.Installer {
	client := &http.Client{Timeout: s.config.DownloadTimeout()}
	return &deps.Installer{
		Layout:   s.layout,
		Target:   s.target,
		Versions: versions,
		Releases: deps.Releases{
			WebRTCBuild: s.config.Releases.WebRTCBuild,
			SoraCPPSDK:  s.config.Releases.SoraCPPSDK,
		},
		IgnoreVersion: s.config.IgnoreVersion,
		Fetcher:       fetch.New(client, s.logger),
		Extractor:     archive.NewExtractor(s.logger),
		Runner:        s.runner(),
		Logger:        s.logger,
	}
}

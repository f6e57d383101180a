// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfig names the environment variable holding the config path.
const EnvConfig = "SORA_SDK_CONFIG"

// Config is the configuration of the sora-deps tool.
type Config struct {
	// DepsDir is the persistent dependency directory. Empty selects a
	// temporary directory that is removed when the command exits.
	// Default: ${SORA_SDK_DEPS_DIR}
	DepsDir string `yaml:"deps_dir"`

	// VersionFile is the KEY=value file pinning dependency versions.
	// Default: VERSION (relative to the working directory)
	VersionFile string `yaml:"version_file"`

	// IgnoreVersion reinstalls every dependency regardless of version
	// markers.
	IgnoreVersion bool `yaml:"ignore_version"`

	// Target overrides platform detection with an explicit package name
	// such as "ubuntu-22.04_x86_64".
	Target string `yaml:"target"`

	// Releases configures where prebuilt archives are downloaded from.
	Releases ReleasesConfig `yaml:"releases"`

	// Download configures the HTTP client.
	Download DownloadConfig `yaml:"download"`

	// Build configures the native extension build.
	Build BuildConfig `yaml:"build"`
}

// ReleasesConfig holds release download bases. A release tag and the
// artifact filename are appended to each.
type ReleasesConfig struct {
	// WebRTCBuild is the webrtc-build release base.
	WebRTCBuild string `yaml:"webrtc_build"`

	// SoraCPPSDK is the sora-cpp-sdk release base (Boost, Lyra and the
	// SDK itself).
	SoraCPPSDK string `yaml:"sora_cpp_sdk"`
}

// DownloadConfig configures archive downloads.
type DownloadConfig struct {
	// Timeout bounds a single download, as a Go duration string.
	// Default: 30m
	Timeout string `yaml:"timeout"`
}

// BuildConfig configures the cmake build.
type BuildConfig struct {
	// Configuration is the cmake build type.
	// Default: Release
	Configuration string `yaml:"configuration"`

	// SourceDir holds the extension's CMakeLists.txt.
	// Default: . (the working directory)
	SourceDir string `yaml:"source_dir"`

	// InstallPrefix receives the built extension.
	// Default: src/sora_sdk
	InstallPrefix string `yaml:"install_prefix"`

	// ToolDirs are searched for git, python3, cmake and xcrun after
	// PATH, for hosts where they live outside it (e.g. /opt/homebrew/bin).
	ToolDirs []string `yaml:"tool_dirs"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DepsDir:     "${SORA_SDK_DEPS_DIR}",
		VersionFile: "VERSION",
		Releases: ReleasesConfig{
			WebRTCBuild: "https://github.com/shiguredo-webrtc-build/webrtc-build/releases/download",
			SoraCPPSDK:  "https://github.com/shiguredo/sora-cpp-sdk/releases/download",
		},
		Download: DownloadConfig{
			Timeout: "30m",
		},
		Build: BuildConfig{
			Configuration: "Release",
			SourceDir:     ".",
			InstallPrefix: "src/sora_sdk",
		},
	}
}

// Load loads configuration from the file named by SORA_SDK_CONFIG, or
// returns the expanded defaults when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvConfig)
	if configPath == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file omits keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths
// and URLs.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.DepsDir = expandVars(c.DepsDir, vars)
	c.VersionFile = expandVars(c.VersionFile, vars)
	c.Releases.WebRTCBuild = expandVars(c.Releases.WebRTCBuild, vars)
	c.Releases.SoraCPPSDK = expandVars(c.Releases.SoraCPPSDK, vars)
	c.Build.SourceDir = expandVars(c.Build.SourceDir, vars)
	c.Build.InstallPrefix = expandVars(c.Build.InstallPrefix, vars)
	for index, directory := range c.Build.ToolDirs {
		c.Build.ToolDirs[index] = expandVars(directory, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// DownloadTimeout returns the parsed download timeout. Call Validate
// first; an invalid value yields zero (no timeout).
func (c *Config) DownloadTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Download.Timeout)
	return timeout
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.VersionFile == "" {
		errs = append(errs, fmt.Errorf("version_file is required"))
	}

	for name, value := range map[string]string{
		"releases.webrtc_build": c.Releases.WebRTCBuild,
		"releases.sora_cpp_sdk": c.Releases.SoraCPPSDK,
	} {
		parsed, err := url.Parse(value)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an http(s) URL, got %q", name, value))
		}
	}

	if c.Download.Timeout != "" {
		if timeout, err := time.ParseDuration(c.Download.Timeout); err != nil || timeout < 0 {
			errs = append(errs, fmt.Errorf("download.timeout must be a non-negative duration, got %q", c.Download.Timeout))
		}
	}

	buildTypes := []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"}
	if !contains(buildTypes, c.Build.Configuration) {
		errs = append(errs, fmt.Errorf("build.configuration must be one of: %v", buildTypes))
	}

	if c.Build.SourceDir == "" {
		errs = append(errs, fmt.Errorf("build.source_dir is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/deps"
	"github.com/bureau-foundation/sora-sdk/lib/marker"
	"github.com/bureau-foundation/sora-sdk/lib/platform"
)

// dependencyState is one row of the status table.
type dependencyState struct {
	kind      deps.Kind
	want      string
	installed string
	present   bool
}

func (s dependencyState) current() bool {
	return s.present && s.installed == s.want
}

func (s dependencyState) label() string {
	switch {
	case !s.present:
		return "missing"
	case s.installed != s.want:
		return "stale"
	default:
		return "ok"
	}
}

func statusCommand(stdout io.Writer) *cli.Command {
	var flags commonFlags
	var showURLs bool
	return &cli.Command{
		Name:    "status",
		Summary: "Compare installed version markers with the pins",
		Description: `Compare each dependency's version marker in the deps directory with
the VERSION pins. Exits 1 when anything is missing or stale, so
scripts can decide whether "install" has work to do. --urls also
lists where each archive would be downloaded from.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			flags.register(flagSet)
			flagSet.BoolVar(&showURLs, "urls", false, "list the download URL of every archive")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			if cfg.DepsDir == "" {
				return fmt.Errorf("status needs a persistent deps directory (--deps-dir or $%s)", deps.EnvDepsDir)
			}
			target, err := resolveTarget(cfg.Target)
			if err != nil {
				return err
			}
			versions, err := deps.LoadVersions(cfg.VersionFile)
			if err != nil {
				return err
			}

			states, err := collectStates(deps.NewLayout(cfg.DepsDir), target, versions)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "target: %s\n", target.PackageName())
			fmt.Fprint(stdout, renderStates(states))
			if showURLs {
				releases := deps.Releases{
					WebRTCBuild: cfg.Releases.WebRTCBuild,
					SoraCPPSDK:  cfg.Releases.SoraCPPSDK,
				}
				for _, artifact := range releases.Artifacts(versions, target) {
					fmt.Fprintf(stdout, "%-8s %s\n", artifact.Kind, artifact.URL)
				}
			}
			for _, state := range states {
				if !state.current() {
					return &cli.ExitError{Code: 1}
				}
			}
			return nil
		},
	}
}

// pin is a dependency and the version its marker should record.
type pin struct {
	kind    deps.Kind
	version string
}

// collectStates reads every marker the target's install would write.
func collectStates(layout deps.Layout, target platform.Target, versions deps.Versions) ([]dependencyState, error) {
	pins := []pin{{deps.KindWebRTC, versions.WebRTCBuild}}
	if target.OS == platform.Ubuntu {
		// The toolchain pins ship inside the webrtc archive, so they are
		// unknown until webrtc is installed.
		llvmVersion := "(after webrtc)"
		sources, err := deps.LoadToolchainSources(deps.NewWebRTCInfo(layout).VersionFile)
		switch {
		case err == nil:
			llvmVersion = sources.Version()
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
		pins = append(pins, pin{deps.KindLLVM, llvmVersion})
	}
	pins = append(pins,
		pin{deps.KindBoost, versions.Boost},
		pin{deps.KindLyra, versions.Lyra},
		pin{deps.KindSora, versions.SoraCPPSDK},
	)

	states := make([]dependencyState, 0, len(pins))
	for _, entry := range pins {
		installed, present, err := marker.Read(layout.MarkerPath(entry.kind))
		if err != nil {
			return nil, err
		}
		states = append(states, dependencyState{
			kind:      entry.kind,
			want:      entry.version,
			installed: installed,
			present:   present,
		})
	}
	return states, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	stateStyles = map[string]lipgloss.Style{
		"ok":      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"stale":   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"missing": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// renderStates lays the rows out in aligned columns.
func renderStates(states []dependencyState) string {
	rows := [][]string{{"DEPENDENCY", "PINNED", "INSTALLED", "STATE"}}
	for _, state := range states {
		installed := state.installed
		if !state.present {
			installed = "-"
		}
		rows = append(rows, []string{string(state.kind), state.want, installed, state.label()})
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for column, cell := range row {
			widths[column] = max(widths[column], lipgloss.Width(cell))
		}
	}

	var builder strings.Builder
	for index, row := range rows {
		for column, cell := range row {
			style := lipgloss.NewStyle()
			switch {
			case index == 0:
				style = headerStyle
			case column == len(row)-1:
				style = stateStyles[cell]
			}
			if column < len(row)-1 {
				style = style.Width(widths[column] + 2)
			}
			builder.WriteString(style.Render(cell))
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

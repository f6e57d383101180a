// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sora-sdk/cmd/sora-deps/cli"
	"github.com/bureau-foundation/sora-sdk/lib/clock"
	"github.com/bureau-foundation/sora-sdk/lib/process"
	"github.com/bureau-foundation/sora-sdk/lib/sora"
	"github.com/bureau-foundation/sora-sdk/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := command().Execute(ctx, os.Args[1:])
	stop()
	process.Exit(err)
}

// options are the command-line settings.
type options struct {
	signalingURL    string
	channelID       string
	clientID        string
	accessToken     string
	metadata        string
	videoCodecType  string
	audioCodecType  string
	outputFrequency int
	outputChannels  int
	videoOutput     string
	audioOutput     string
	verbose         bool
	showVersion     bool
}

func command() *cli.Command {
	var opts options
	return &cli.Command{
		Name:    "sora-recvonly",
		Summary: "Receive a Sora channel and record its media",
		Description: `Join a Sora channel as a receive-only client. Video is recorded to
--video-output (IVF for VP8/VP9, Annex-B for H.264) and audio is
written as raw little-endian 16-bit PCM to --audio-output.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("sora-recvonly", pflag.ContinueOnError)
			flagSet.StringVar(&opts.signalingURL, "signaling-url", "", "Sora signaling URL, wss://... (required)")
			flagSet.StringVar(&opts.channelID, "channel-id", "", "channel to join (required)")
			flagSet.StringVar(&opts.clientID, "client-id", "recvonly", "client ID reported to the server")
			flagSet.StringVar(&opts.accessToken, "access-token", "", "sent as metadata.access_token")
			flagSet.StringVar(&opts.metadata, "metadata", "", "metadata as a JSON object (overrides --access-token)")
			flagSet.StringVar(&opts.videoCodecType, "video-codec-type", "", "requested video codec: VP8, VP9 or H264")
			flagSet.StringVar(&opts.audioCodecType, "audio-codec-type", "PCMU", "requested audio codec: PCMU or PCMA")
			flagSet.IntVar(&opts.outputFrequency, "output-frequency", 16000, "audio output sample rate in Hz")
			flagSet.IntVar(&opts.outputChannels, "output-channels", 1, "audio output channel count")
			flagSet.StringVar(&opts.videoOutput, "video-output", "", "video recording path (default: discard)")
			flagSet.StringVar(&opts.audioOutput, "audio-output", "", "raw PCM output path (default: discard)")
			flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
			flagSet.BoolVar(&opts.showVersion, "version", false, "print the version and exit")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Record a channel",
				Command:     "sora-recvonly --signaling-url wss://sora.example.com/signaling --channel-id sora --access-token $TOKEN --video-output out.ivf",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if opts.showVersion {
				fmt.Printf("sora-recvonly %s\n", version.Info())
				return nil
			}
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return run(ctx, opts)
		},
	}
}

func run(ctx context.Context, opts options) error {
	if opts.signalingURL == "" || opts.channelID == "" {
		return errors.New("--signaling-url and --channel-id are required")
	}
	metadata, err := buildMetadata(opts.accessToken, opts.metadata)
	if err != nil {
		return err
	}
	logger := cli.NewCommandLogger(opts.verbose)

	videoOutput, err := openOutput(opts.videoOutput)
	if err != nil {
		return err
	}
	audioOutput, err := openOutput(opts.audioOutput)
	if err != nil {
		videoOutput.Close()
		return err
	}
	defer audioOutput.Close()

	client := NewRecvonly(opts.outputFrequency, opts.outputChannels, newRecorder(videoOutput, logger), clock.Real(), logger)
	connectionOptions := sora.Options{
		SignalingURL:   opts.signalingURL,
		ChannelID:      opts.channelID,
		ClientID:       opts.clientID,
		Metadata:       metadata,
		Role:           sora.RoleRecvonly,
		AudioCodecType: opts.audioCodecType,
		VideoCodecType: opts.videoCodecType,
		Logger:         logger,
	}
	client.Attach(&connectionOptions)
	conn, err := sora.NewConnection(connectionOptions)
	if err != nil {
		videoOutput.Close()
		return err
	}
	return client.Run(ctx, conn, audioOutput)
}

// buildMetadata returns the connect metadata: the JSON object when
// given, otherwise {"access_token": token} when a token is set.
func buildMetadata(accessToken, raw string) (any, error) {
	if raw != "" {
		var metadata map[string]any
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, fmt.Errorf("--metadata must be a JSON object: %w", err)
		}
		return metadata, nil
	}
	if accessToken != "" {
		return map[string]string{"access_token": accessToken}, nil
	}
	return nil, nil
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{io.Discard}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output: %w", err)
	}
	return file, nil
}

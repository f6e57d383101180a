// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/sora-sdk/lib/version"
)

// Role is the direction a client takes in a channel.
type Role string

const (
	RoleRecvonly Role = "recvonly"
	RoleSendonly Role = "sendonly"
	RoleSendrecv Role = "sendrecv"
)

// Options configures a Connection. Handlers are invoked on the
// signaling goroutine and must not block for long.
type Options struct {
	// SignalingURL is the wss:// (or ws://) signaling endpoint.
	SignalingURL string
	ChannelID    string
	ClientID     string
	// Metadata is sent verbatim; Sora commonly expects
	// {"access_token": ...} here.
	Metadata any
	// Role defaults to RoleRecvonly. This package only receives media,
	// so sending roles negotiate without local tracks.
	Role Role

	// Audio and Video enable or disable each media kind. Nil leaves the
	// choice to the server.
	Audio *bool
	Video *bool
	// AudioCodecType and VideoCodecType request a codec, e.g. "PCMU"
	// or "VP8". Setting one implies the media kind is enabled.
	AudioCodecType string
	VideoCodecType string
	Multistream    *bool

	// Dialer opens the WebSocket. Default: websocket.DefaultDialer.
	Dialer *websocket.Dialer
	Logger *slog.Logger

	// OnTrack is called once per remote track.
	OnTrack func(*Track)
	// OnDisconnect is called exactly once when the connection ends.
	// err is nil after a requested Disconnect.
	OnDisconnect func(err error, message string)
	// OnNotify receives each "notify" message.
	OnNotify func(eventType string, raw json.RawMessage)
	// OnPush receives the data of each "push" message.
	OnPush func(data json.RawMessage)
}

// RedirectError reports a "redirect" message. Following redirects is
// not supported; reconnect to Location instead.
type RedirectError struct {
	Location string
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("sora: signaling redirected to %s", e.Location)
}

// Connection is one signaling session with a Sora server.
type Connection struct {
	options Options
	logger  *slog.Logger
	api     *webrtc.API

	writeMu sync.Mutex
	socket  *websocket.Conn

	// peer is touched only by the signaling goroutine until finish.
	peer *webrtc.PeerConnection

	connected atomic.Bool
	requested atomic.Bool
	finished  atomic.Bool
	done      chan struct{}
}

// NewConnection validates options and prepares a Connection. No
// network activity happens until Connect.
func NewConnection(options Options) (*Connection, error) {
	if options.SignalingURL == "" {
		return nil, errors.New("sora: signaling URL is required")
	}
	parsed, err := url.Parse(options.SignalingURL)
	if err != nil {
		return nil, fmt.Errorf("sora: parsing signaling URL: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return nil, fmt.Errorf("sora: signaling URL scheme must be ws or wss, got %q", parsed.Scheme)
	}
	if options.ChannelID == "" {
		return nil, errors.New("sora: channel ID is required")
	}
	switch options.Role {
	case "":
		options.Role = RoleRecvonly
	case RoleRecvonly, RoleSendonly, RoleSendrecv:
	default:
		return nil, fmt.Errorf("sora: unknown role %q", options.Role)
	}
	if options.Dialer == nil {
		options.Dialer = websocket.DefaultDialer
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	api, err := newAPI()
	if err != nil {
		return nil, err
	}
	return &Connection{
		options: options,
		logger:  options.Logger.With("channel_id", options.ChannelID),
		api:     api,
		done:    make(chan struct{}),
	}, nil
}

// newAPI builds a pion API that negotiates only codecs the sinks can
// consume.
func newAPI() (*webrtc.API, error) {
	engine := &webrtc.MediaEngine{}
	feedback := []webrtc.RTCPFeedback{
		{Type: "goog-remb"},
		{Type: "ccm", Parameter: "fir"},
		{Type: "nack"},
		{Type: "nack", Parameter: "pli"},
	}
	audio := []webrtc.RTPCodecParameters{
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000, Channels: 1}, PayloadType: 0},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypePCMA, ClockRate: 8000, Channels: 1}, PayloadType: 8},
	}
	video := []webrtc.RTPCodecParameters{
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000, RTCPFeedback: feedback}, PayloadType: 96},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP9, ClockRate: 90000, SDPFmtpLine: "profile-id=0", RTCPFeedback: feedback}, PayloadType: 98},
		{RTPCodecCapability: webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264, ClockRate: 90000, SDPFmtpLine: "level-asymmetry-allowed=1;packetization-mode=1;profile-level-id=42e01f", RTCPFeedback: feedback}, PayloadType: 102},
	}
	for _, codec := range audio {
		if err := engine.RegisterCodec(codec, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, fmt.Errorf("sora: registering %s: %w", codec.MimeType, err)
		}
	}
	for _, codec := range video {
		if err := engine.RegisterCodec(codec, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, fmt.Errorf("sora: registering %s: %w", codec.MimeType, err)
		}
	}

	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(engine, registry); err != nil {
		return nil, fmt.Errorf("sora: registering interceptors: %w", err)
	}
	return webrtc.NewAPI(webrtc.WithMediaEngine(engine), webrtc.WithInterceptorRegistry(registry)), nil
}

// Connect opens the signaling WebSocket and sends the connect message.
// It returns once the session has started; offers, tracks and the
// eventual disconnect arrive through the handlers on a background
// goroutine. ctx bounds only the WebSocket handshake.
func (c *Connection) Connect(ctx context.Context) error {
	if !c.connected.CompareAndSwap(false, true) {
		return errors.New("sora: Connect called more than once")
	}
	if c.finished.Load() {
		return errors.New("sora: connection already closed")
	}

	socket, _, err := c.options.Dialer.DialContext(ctx, c.options.SignalingURL, nil)
	if err != nil {
		err = fmt.Errorf("sora: dialing %s: %w", c.options.SignalingURL, err)
		c.finish(err)
		return err
	}
	c.socket = socket

	if err := c.send(c.connectMessage()); err != nil {
		err = fmt.Errorf("sora: sending connect: %w", err)
		c.finish(err)
		return err
	}
	c.logger.Info("signaling connected", "url", c.options.SignalingURL, "role", c.options.Role)

	go c.readLoop()
	return nil
}

func (c *Connection) connectMessage() connectMessage {
	message := connectMessage{
		Type:        messageConnect,
		Role:        c.options.Role,
		ChannelID:   c.options.ChannelID,
		ClientID:    c.options.ClientID,
		Metadata:    c.options.Metadata,
		Multistream: c.options.Multistream,
		SoraClient:  "Sora Go SDK " + version.Version,
		Environment: fmt.Sprintf("[%s %s] Go %s", runtime.GOOS, runtime.GOARCH, runtime.Version()),
		LibWebRTC:   "pion/webrtc v4",
	}
	message.Audio = mediaSetting(c.options.Audio, c.options.AudioCodecType)
	message.Video = mediaSetting(c.options.Video, c.options.VideoCodecType)
	return message
}

func mediaSetting(enabled *bool, codecType string) any {
	if enabled != nil && !*enabled {
		return false
	}
	if codecType != "" {
		return codecSetting{CodecType: codecType}
	}
	if enabled != nil {
		return true
	}
	return nil
}

// send writes one JSON message. Safe for concurrent use.
func (c *Connection) send(message any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.socket.WriteJSON(message)
}

func (c *Connection) readLoop() {
	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if c.requested.Load() {
				c.finish(nil)
			} else {
				c.finish(fmt.Errorf("sora: signaling read: %w", err))
			}
			return
		}
		var message inboundMessage
		if err := json.Unmarshal(raw, &message); err != nil {
			c.logger.Warn("malformed signaling message", "error", err)
			continue
		}
		if err := c.handle(message, raw); err != nil {
			c.finish(err)
			return
		}
	}
}

func (c *Connection) handle(message inboundMessage, raw json.RawMessage) error {
	switch message.Type {
	case messageOffer:
		c.logger.Info("received offer", "connection_id", message.ConnectionID)
		if err := c.newPeer(message.Config.configuration()); err != nil {
			return err
		}
		return c.answer(message.SDP, messageAnswer)

	case messageReOffer:
		if c.peer == nil {
			return errors.New("sora: re-offer before offer")
		}
		return c.answer(message.SDP, messageReAnswer)

	case messagePing:
		if err := c.send(typeMessage{Type: messagePong}); err != nil {
			return fmt.Errorf("sora: sending pong: %w", err)
		}

	case messageNotify:
		c.logger.Debug("notify", "event_type", message.EventType)
		if c.options.OnNotify != nil {
			c.options.OnNotify(message.EventType, raw)
		}

	case messagePush:
		if c.options.OnPush != nil {
			c.options.OnPush(message.Data)
		}

	case messageRedirect:
		return &RedirectError{Location: message.Location}

	default:
		c.logger.Debug("ignoring signaling message", "type", message.Type)
	}
	return nil
}

func (c *Connection) newPeer(configuration webrtc.Configuration) error {
	if c.peer != nil {
		return errors.New("sora: duplicate offer")
	}
	peer, err := c.api.NewPeerConnection(configuration)
	if err != nil {
		return fmt.Errorf("sora: creating peer connection: %w", err)
	}
	peer.OnTrack(func(remote *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		track := newRemoteTrack(remote)
		c.logger.Info("remote track", "kind", track.Kind, "mime_type", track.MimeType, "stream_id", track.StreamID)
		if c.options.OnTrack != nil {
			c.options.OnTrack(track)
		}
	})
	peer.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.logger.Debug("peer connection state", "state", state.String())
		if state == webrtc.PeerConnectionStateFailed {
			go c.finish(errors.New("sora: peer connection failed"))
		}
	})
	c.peer = peer
	return nil
}

// answer applies a remote offer and sends the complete local
// description once ICE gathering is done.
func (c *Connection) answer(sdp, replyType string) error {
	offer := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := c.peer.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("sora: applying %s: %w", replyType, err)
	}
	answer, err := c.peer.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("sora: creating %s: %w", replyType, err)
	}
	gatherComplete := webrtc.GatheringCompletePromise(c.peer)
	if err := c.peer.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("sora: setting local description: %w", err)
	}
	select {
	case <-gatherComplete:
	case <-c.done:
		return errors.New("sora: connection closed during ICE gathering")
	}

	if err := c.send(sdpMessage{Type: replyType, SDP: c.peer.LocalDescription().SDP}); err != nil {
		return fmt.Errorf("sora: sending %s: %w", replyType, err)
	}
	return nil
}

// Disconnect asks the server to end the session and closes the
// transport. It does not wait: OnDisconnect fires (with a nil error)
// on the signaling goroutine and Done is closed afterwards. Calling
// Disconnect more than once is harmless. Disconnect must not race a
// Connect call still in progress; before Connect it closes the
// connection for good.
func (c *Connection) Disconnect() {
	if !c.requested.CompareAndSwap(false, true) {
		return
	}
	if c.socket == nil {
		c.finish(nil)
		return
	}
	if err := c.send(typeMessage{Type: messageDisconnect}); err != nil {
		c.logger.Debug("sending disconnect failed", "error", err)
	}
	c.writeMu.Lock()
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.socket.WriteMessage(websocket.CloseMessage, closeMessage)
	c.writeMu.Unlock()
	c.socket.Close()
}

// Done is closed after OnDisconnect has returned.
func (c *Connection) Done() <-chan struct{} { return c.done }

// finish tears down the session once. Later calls are ignored.
func (c *Connection) finish(err error) {
	if !c.finished.CompareAndSwap(false, true) {
		return
	}
	if c.socket != nil {
		c.socket.Close()
	}
	if c.peer != nil {
		if closeErr := c.peer.Close(); closeErr != nil {
			c.logger.Debug("closing peer connection", "error", closeErr)
		}
	}

	message := "disconnected"
	if err != nil {
		message = err.Error()
		c.logger.Warn("connection ended", "error", err)
	} else {
		c.logger.Info("connection closed")
	}
	if c.options.OnDisconnect != nil {
		c.options.OnDisconnect(err, message)
	}
	close(c.done)
}

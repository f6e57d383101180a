// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"

	"github.com/bureau-foundation/sora-sdk/lib/testutil"
)

// signalingServer accepts WebSocket connections and hands each to the
// test.
type signalingServer struct {
	server  *httptest.Server
	sockets chan *websocket.Conn
}

func newSignalingServer(t *testing.T) *signalingServer {
	t.Helper()
	s := &signalingServer{sockets: make(chan *websocket.Conn, 1)}
	upgrader := websocket.Upgrader{}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		socket, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.sockets <- socket
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *signalingServer) url() string {
	return "ws" + strings.TrimPrefix(s.server.URL, "http")
}

type disconnectEvent struct {
	err     error
	message string
}

// harness connects a client to a fresh signaling server and returns
// the server side of the socket after reading the connect message.
type harness struct {
	connection  *Connection
	socket      *websocket.Conn
	connect     map[string]any
	disconnects chan disconnectEvent
	count       *atomic.Int32
}

func newHarness(t *testing.T, configure func(*Options)) *harness {
	t.Helper()
	server := newSignalingServer(t)
	h := &harness{disconnects: make(chan disconnectEvent, 4), count: &atomic.Int32{}}

	options := Options{
		SignalingURL: server.url(),
		ChannelID:    "sora",
		OnDisconnect: func(err error, message string) {
			h.count.Add(1)
			h.disconnects <- disconnectEvent{err, message}
		},
	}
	if configure != nil {
		configure(&options)
	}
	connection, err := NewConnection(options)
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	h.connection = connection

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := connection.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	h.socket = testutil.RequireReceive(t, server.sockets, 5*time.Second, "server accept")
	t.Cleanup(func() { h.socket.Close() })
	h.socket.SetReadDeadline(time.Now().Add(10 * time.Second))
	if err := h.socket.ReadJSON(&h.connect); err != nil {
		t.Fatalf("reading connect: %v", err)
	}
	return h
}

func (h *harness) send(t *testing.T, message any) {
	t.Helper()
	if err := h.socket.WriteJSON(message); err != nil {
		t.Fatalf("server write: %v", err)
	}
}

func (h *harness) receive(t *testing.T, wantType string) map[string]any {
	t.Helper()
	var message map[string]any
	if err := h.socket.ReadJSON(&message); err != nil {
		t.Fatalf("server read (want %s): %v", wantType, err)
	}
	if message["type"] != wantType {
		t.Fatalf("server received %v, want type %q", message, wantType)
	}
	return message
}

func TestNewConnectionValidates(t *testing.T) {
	t.Parallel()

	for name, options := range map[string]Options{
		"no url":     {ChannelID: "sora"},
		"bad scheme": {SignalingURL: "https://example.com/signaling", ChannelID: "sora"},
		"no channel": {SignalingURL: "wss://example.com/signaling"},
		"bad role":   {SignalingURL: "wss://example.com/signaling", ChannelID: "sora", Role: "viewer"},
	} {
		if _, err := NewConnection(options); err == nil {
			t.Errorf("%s: NewConnection succeeded", name)
		}
	}
}

func TestConnectMessage(t *testing.T) {
	t.Parallel()

	multistream := true
	h := newHarness(t, func(options *Options) {
		options.ClientID = "recvonly"
		options.Metadata = map[string]string{"access_token": "secret"}
		options.AudioCodecType = "PCMU"
		options.VideoCodecType = "VP8"
		options.Multistream = &multistream
	})

	connect := h.connect
	for key, want := range map[string]any{
		"type":        "connect",
		"role":        "recvonly",
		"channel_id":  "sora",
		"client_id":   "recvonly",
		"multistream": true,
	} {
		if connect[key] != want {
			t.Errorf("connect[%q] = %v, want %v", key, connect[key], want)
		}
	}
	if metadata, _ := connect["metadata"].(map[string]any); metadata["access_token"] != "secret" {
		t.Errorf("metadata = %v", connect["metadata"])
	}
	if audio, _ := connect["audio"].(map[string]any); audio["codec_type"] != "PCMU" {
		t.Errorf("audio = %v", connect["audio"])
	}
	if video, _ := connect["video"].(map[string]any); video["codec_type"] != "VP8" {
		t.Errorf("video = %v", connect["video"])
	}
	if client, _ := connect["sora_client"].(string); !strings.HasPrefix(client, "Sora Go SDK") {
		t.Errorf("sora_client = %q", client)
	}
}

func TestMediaSetting(t *testing.T) {
	t.Parallel()

	enabled, disabled := true, false
	if got := mediaSetting(nil, ""); got != nil {
		t.Errorf("unset = %v, want nil", got)
	}
	if got := mediaSetting(&disabled, "VP8"); got != false {
		t.Errorf("disabled = %v, want false", got)
	}
	if got := mediaSetting(&enabled, ""); got != true {
		t.Errorf("enabled = %v, want true", got)
	}
	if got := mediaSetting(nil, "H264"); got != (codecSetting{CodecType: "H264"}) {
		t.Errorf("codec = %v", got)
	}
}

func TestPingPong(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.send(t, map[string]any{"type": "ping", "stats": false})
	h.receive(t, "pong")
	h.connection.Disconnect()
}

func TestOfferAndReOffer(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	// The offerer plays the SFU: same codec table, one PCMU and one VP8
	// track, as Sora sends to a recvonly client.
	api, err := newAPI()
	if err != nil {
		t.Fatal(err)
	}
	offerer, err := api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { offerer.Close() })
	capabilities := []webrtc.RTPCodecCapability{
		{MimeType: webrtc.MimeTypePCMU, ClockRate: 8000, Channels: 1},
		{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
	}
	for index, capability := range capabilities {
		track, err := webrtc.NewTrackLocalStaticSample(capability, fmt.Sprintf("track-%d", index), "stream")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := offerer.AddTransceiverFromTrack(track, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionSendonly,
		}); err != nil {
			t.Fatal(err)
		}
	}

	createOffer := func() string {
		t.Helper()
		offer, err := offerer.CreateOffer(nil)
		if err != nil {
			t.Fatal(err)
		}
		gathered := webrtc.GatheringCompletePromise(offerer)
		if err := offerer.SetLocalDescription(offer); err != nil {
			t.Fatal(err)
		}
		<-gathered
		return offerer.LocalDescription().SDP
	}
	applyAnswer := func(message map[string]any) {
		t.Helper()
		sdp, _ := message["sdp"].(string)
		if !strings.Contains(sdp, "a=recvonly") {
			t.Errorf("answer is not recvonly:\n%s", sdp)
		}
		for _, codec := range []string{"PCMU/8000", "VP8/90000"} {
			if !strings.Contains(sdp, codec) {
				t.Errorf("answer does not accept %s:\n%s", codec, sdp)
			}
		}
		if err := offerer.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp}); err != nil {
			t.Fatalf("applying answer: %v", err)
		}
	}

	h.send(t, map[string]any{
		"type":          "offer",
		"sdp":           createOffer(),
		"connection_id": "C1",
		"config":        map[string]any{"iceServers": []any{}},
	})
	applyAnswer(h.receive(t, "answer"))

	h.send(t, map[string]any{"type": "re-offer", "sdp": createOffer()})
	applyAnswer(h.receive(t, "re-answer"))

	h.connection.Disconnect()
	h.receive(t, "disconnect")
	event := testutil.RequireReceive(t, h.disconnects, 10*time.Second, "disconnect callback")
	if event.err != nil {
		t.Errorf("requested disconnect reported error %v", event.err)
	}
}

func TestDisconnectFiresOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.connection.Disconnect()
	h.connection.Disconnect()
	h.receive(t, "disconnect")

	testutil.RequireClosed(t, h.connection.Done(), 5*time.Second, "connection done")
	event := testutil.RequireReceive(t, h.disconnects, time.Second, "disconnect callback")
	if event.err != nil || event.message != "disconnected" {
		t.Errorf("OnDisconnect(%v, %q), want (nil, \"disconnected\")", event.err, event.message)
	}
	h.connection.Disconnect()
	if count := h.count.Load(); count != 1 {
		t.Errorf("OnDisconnect called %d times, want 1", count)
	}
}

func TestServerCloseReportsError(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.socket.Close()

	event := testutil.RequireReceive(t, h.disconnects, 5*time.Second, "disconnect callback")
	if event.err == nil {
		t.Error("server close reported no error")
	}
	testutil.RequireClosed(t, h.connection.Done(), 5*time.Second, "connection done")
	h.connection.Disconnect()
	if count := h.count.Load(); count != 1 {
		t.Errorf("OnDisconnect called %d times, want 1", count)
	}
}

func TestRedirectEndsConnection(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.send(t, map[string]any{"type": "redirect", "location": "wss://other.example.com/signaling"})

	event := testutil.RequireReceive(t, h.disconnects, 5*time.Second, "disconnect callback")
	var redirect *RedirectError
	if !errors.As(event.err, &redirect) {
		t.Fatalf("err = %v, want *RedirectError", event.err)
	}
	if redirect.Location != "wss://other.example.com/signaling" {
		t.Errorf("Location = %q", redirect.Location)
	}
}

func TestNotifyAndPush(t *testing.T) {
	t.Parallel()

	notifications := make(chan string, 1)
	pushes := make(chan json.RawMessage, 1)
	h := newHarness(t, func(options *Options) {
		options.OnNotify = func(eventType string, raw json.RawMessage) {
			var message map[string]any
			if err := json.Unmarshal(raw, &message); err == nil && message["connection_id"] == "C2" {
				notifications <- eventType
			}
		}
		options.OnPush = func(data json.RawMessage) { pushes <- data }
	})

	h.send(t, map[string]any{"type": "notify", "event_type": "connection.created", "connection_id": "C2"})
	if eventType := testutil.RequireReceive(t, notifications, 5*time.Second, "notify"); eventType != "connection.created" {
		t.Errorf("event type = %q", eventType)
	}

	h.send(t, map[string]any{"type": "push", "data": map[string]int{"n": 1}})
	data := testutil.RequireReceive(t, pushes, 5*time.Second, "push")
	if string(data) != `{"n":1}` {
		t.Errorf("push data = %s", data)
	}
	h.connection.Disconnect()
}

func TestConnectFailureReportsDisconnect(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	server.Close()

	disconnects := make(chan error, 1)
	connection, err := NewConnection(Options{
		SignalingURL: url,
		ChannelID:    "sora",
		OnDisconnect: func(err error, message string) { disconnects <- err },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := connection.Connect(context.Background()); err == nil {
		t.Fatal("Connect to a closed server succeeded")
	}
	if err := testutil.RequireReceive(t, disconnects, time.Second, "disconnect callback"); err == nil {
		t.Error("OnDisconnect got a nil error")
	}
	if err := connection.Connect(context.Background()); err == nil {
		t.Error("second Connect succeeded")
	}
}

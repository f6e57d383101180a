// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sora

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Signaling message types.
const (
	messageConnect    = "connect"
	messageOffer      = "offer"
	messageAnswer     = "answer"
	messageReOffer    = "re-offer"
	messageReAnswer   = "re-answer"
	messagePing       = "ping"
	messagePong       = "pong"
	messageNotify     = "notify"
	messagePush       = "push"
	messageRedirect   = "redirect"
	messageDisconnect = "disconnect"
)

// connectMessage opens a session. audio and video carry either a bool
// or a {"codec_type": ...} object.
type connectMessage struct {
	Type        string `json:"type"`
	Role        Role   `json:"role"`
	ChannelID   string `json:"channel_id"`
	ClientID    string `json:"client_id,omitempty"`
	Metadata    any    `json:"metadata,omitempty"`
	Multistream *bool  `json:"multistream,omitempty"`
	Audio       any    `json:"audio,omitempty"`
	Video       any    `json:"video,omitempty"`
	SoraClient  string `json:"sora_client"`
	Environment string `json:"environment"`
	LibWebRTC   string `json:"libwebrtc"`
}

type codecSetting struct {
	CodecType string `json:"codec_type"`
}

// inboundMessage is the union of every message the server sends.
// Fields not used by a given type stay zero.
type inboundMessage struct {
	Type         string          `json:"type"`
	SDP          string          `json:"sdp"`
	ConnectionID string          `json:"connection_id"`
	ClientID     string          `json:"client_id"`
	Config       *offerConfig    `json:"config"`
	EventType    string          `json:"event_type"`
	Data         json.RawMessage `json:"data"`
	Location     string          `json:"location"`
	Stats        bool            `json:"stats"`
}

type offerConfig struct {
	ICEServers         []iceServer `json:"iceServers"`
	ICETransportPolicy string      `json:"iceTransportPolicy"`
}

type iceServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username"`
	Credential string   `json:"credential"`
}

// configuration converts the server-provided ICE settings.
func (c *offerConfig) configuration() webrtc.Configuration {
	var configuration webrtc.Configuration
	if c == nil {
		return configuration
	}
	for _, server := range c.ICEServers {
		configuration.ICEServers = append(configuration.ICEServers, webrtc.ICEServer{
			URLs:       server.URLs,
			Username:   server.Username,
			Credential: server.Credential,
		})
	}
	if c.ICETransportPolicy == "relay" {
		configuration.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}
	return configuration
}

type sdpMessage struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

type typeMessage struct {
	Type string `json:"type"`
}

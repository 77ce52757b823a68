// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package whatsapp

import (
	"context"
	"errors"
	"testing"

	"go.mau.fi/whatsmeow/types"
)

func TestResolveOtherPartyJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info types.MessageInfo
		want string
	}{
		{
			name: "outgoing device sent uses destination jid",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					IsFromMe: true,
					Chat:     types.NewJID("11111111111", types.DefaultUserServer),
				},
				DeviceSentMeta: &types.DeviceSentMeta{DestinationJID: "22222222222@s.whatsapp.net"},
			},
			want: "22222222222@s.whatsapp.net",
		},
		{
			name: "outgoing lid destination prefers phone-addressed chat",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					IsFromMe:     true,
					Chat:         types.NewJID("11111111111", types.DefaultUserServer),
					RecipientAlt: types.NewJID("99999999999", types.HiddenUserServer),
				},
				DeviceSentMeta: &types.DeviceSentMeta{DestinationJID: "88888888888@lid"},
			},
			want: "11111111111@s.whatsapp.net",
		},
		{
			name: "outgoing lid chat prefers phone recipient alt",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					IsFromMe:     true,
					Chat:         types.NewJID("11111111111", types.HiddenUserServer),
					RecipientAlt: types.NewJID("33333333333", types.DefaultUserServer),
				},
			},
			want: "33333333333@s.whatsapp.net",
		},
		{
			name: "incoming prefers sender",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					Sender:    types.NewJID("44444444444", types.DefaultUserServer),
					SenderAlt: types.NewJID("55555555555", types.HiddenUserServer),
					Chat:      types.NewJID("66666666666", types.DefaultUserServer),
				},
			},
			want: "44444444444@s.whatsapp.net",
		},
		{
			name: "incoming lid sender prefers phone sender alt",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					Sender:    types.NewJID("44444444444", types.HiddenUserServer),
					SenderAlt: types.NewJID("55555555555", types.DefaultUserServer),
					Chat:      types.NewJID("66666666666", types.HiddenUserServer),
				},
			},
			want: "55555555555@s.whatsapp.net",
		},
		{
			name: "incoming falls back to chat",
			info: types.MessageInfo{
				MessageSource: types.MessageSource{
					Chat: types.NewJID("77777777777", types.DefaultUserServer),
				},
			},
			want: "77777777777@s.whatsapp.net",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := resolveOtherPartyJID(tt.info).String(); got != tt.want {
				t.Fatalf("resolveOtherPartyJID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreferPhoneNumberJID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		primary   types.JID
		alternate types.JID
		want      string
	}{
		{
			name:      "prefer hidden fallback to phone",
			primary:   types.NewJID("11111111111", types.HiddenUserServer),
			alternate: types.NewJID("22222222222", types.DefaultUserServer),
			want:      "22222222222@s.whatsapp.net",
		},
		{
			name:      "prefer hidden fallback to legacy phone",
			primary:   types.NewJID("11111111111", types.HiddenUserServer),
			alternate: types.NewJID("22222222222", types.LegacyUserServer),
			want:      "22222222222@c.us",
		},
		{
			name:      "keep primary when already phone",
			primary:   types.NewJID("11111111111", types.DefaultUserServer),
			alternate: types.NewJID("22222222222", types.HiddenUserServer),
			want:      "11111111111@s.whatsapp.net",
		},
		{
			name:      "keep hidden primary without phone alternate",
			primary:   types.NewJID("11111111111", types.HiddenUserServer),
			alternate: types.NewJID("22222222222", types.HiddenUserServer),
			want:      "11111111111@lid",
		},
		{
			name:      "empty primary uses alternate",
			alternate: types.NewJID("22222222222", types.DefaultUserServer),
			want:      "22222222222@s.whatsapp.net",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := preferPhoneNumberJID(tt.primary, tt.alternate).String(); got != tt.want {
				t.Fatalf("preferPhoneNumberJID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsOutgoingMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		info types.MessageInfo
		want bool
	}{
		{
			name: "from me",
			info: types.MessageInfo{MessageSource: types.MessageSource{IsFromMe: true}},
			want: true,
		},
		{
			name: "device sent destination",
			info: types.MessageInfo{DeviceSentMeta: &types.DeviceSentMeta{DestinationJID: "22222222222@s.whatsapp.net"}},
			want: true,
		},
		{
			name: "device sent missing destination",
			info: types.MessageInfo{DeviceSentMeta: &types.DeviceSentMeta{}},
			want: false,
		},
		{
			name: "incoming normal message",
			info: types.MessageInfo{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isOutgoingMessage(tt.info); got != tt.want {
				t.Fatalf("isOutgoingMessage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendRequiresConnection(t *testing.T) {
	t.Parallel()

	var nilClient *Client
	if _, err := nilClient.Send(context.Background(), "+15550001111", "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected for nil client, got %v", err)
	}

	c := &Client{status: StatusConnected}
	if _, err := c.Send(context.Background(), "+15550001111", "hi"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected without protocol client, got %v", err)
	}
}

func TestStatusAccessors(t *testing.T) {
	t.Parallel()

	c := &Client{status: StatusDisconnected}
	c.setStatus(StatusPairing)
	c.setQRCode("abc")

	if c.GetStatus() != StatusPairing || c.GetQRCode() != "abc" {
		t.Fatalf("unexpected state: %s %q", c.GetStatus(), c.GetQRCode())
	}
	if c.IsConnected() {
		t.Fatal("pairing client should not report connected")
	}

	c.Disconnect()
	if c.GetStatus() != StatusDisconnected || c.GetQRCode() != "" {
		t.Fatal("expected disconnect to clear state")
	}
}

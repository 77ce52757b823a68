/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/humaidq/hypertrack/logging"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

// Status represents the WhatsApp connection status
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusPairing      Status = "pairing"
)

const replyTimeout = 15 * time.Second

// ReplyHandler receives the text of an incoming direct message. A non-empty
// return value is sent back to the same chat.
type ReplyHandler func(ctx context.Context, phone, text string) (string, error)

// Client manages the WhatsApp connection via whatsmeow
type Client struct {
	client      *whatsmeow.Client
	container   *sqlstore.Container
	deviceStore *store.Device
	status      Status
	qrCode      string // Base64 encoded PNG
	verbose     bool
	mu          sync.RWMutex
	onReply     ReplyHandler
}

var (
	instance *Client
	once     sync.Once
)

// GetClient returns the singleton WhatsApp client instance, or nil when the
// channel has not been initialised.
func GetClient() *Client {
	return instance
}

// Initialize sets up the WhatsApp client with PostgreSQL storage. The device
// keys live in the same database as the application tables.
func Initialize(ctx context.Context, databaseURL string, verbose bool, onReply ReplyHandler) error {
	var initErr error
	once.Do(func() {
		store.SetOSInfo("Hypertrack", [3]uint32{1, 0, 0})

		container, err := sqlstore.New(ctx, "pgx", databaseURL, newWALogger("store", verbose))
		if err != nil {
			initErr = fmt.Errorf("failed to create sqlstore: %w", err)
			return
		}

		deviceStore, err := container.GetFirstDevice(ctx)
		if err != nil {
			initErr = fmt.Errorf("failed to get device: %w", err)
			return
		}

		instance = &Client{
			container:   container,
			deviceStore: deviceStore,
			status:      StatusDisconnected,
			verbose:     verbose,
			onReply:     onReply,
		}

		if deviceStore.ID != nil {
			go func() {
				if err := instance.Reconnect(context.Background()); err != nil {
					logger.Error("WhatsApp reconnect failed", "error", err)
				}
			}()
		}
	})

	return initErr
}

// GetStatus returns the current connection status
func (c *Client) GetStatus() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// GetQRCode returns the current QR code as a base64 PNG string
func (c *Client) GetQRCode() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.qrCode
}

func (c *Client) setStatus(status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *Client) setQRCode(qrCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.qrCode = qrCode
}

func (c *Client) newProtocolClient() *whatsmeow.Client {
	client := whatsmeow.NewClient(c.deviceStore, newWALogger("client", c.verbose))
	client.AddEventHandler(c.handleEvent)
	client.EnableAutoReconnect = true
	client.AutoTrustIdentity = true
	return client
}

// Connect initiates the WhatsApp connection. When no device is linked yet
// the client enters pairing mode and publishes QR codes via GetQRCode.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	c.client = c.newProtocolClient()

	if c.client.Store.ID != nil {
		if err := c.client.Connect(); err != nil {
			c.setStatus(StatusDisconnected)
			return fmt.Errorf("failed to connect: %w", err)
		}
		c.setStatus(StatusConnected)
		return nil
	}

	// The QR channel must be requested before connecting.
	c.setStatus(StatusPairing)
	qrChan, err := c.client.GetQRChannel(ctx)
	if err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to get QR channel: %w", err)
	}

	if err := c.client.Connect(); err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to connect: %w", err)
	}

	go c.watchPairing(qrChan)

	return nil
}

func (c *Client) watchPairing(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		logger.Debug("WhatsApp QR event", "event", evt.Event)

		switch evt.Event {
		case "code":
			png, err := qrcode.Encode(evt.Code, qrcode.Medium, 256)
			if err != nil {
				logger.Error("Failed to generate QR code", "error", err)
				continue
			}
			c.setQRCode(base64.StdEncoding.EncodeToString(png))
			logger.Info("WhatsApp QR code generated")
		case "success":
			c.setQRCode("")
			c.setStatus(StatusConnected)
			logger.Info("WhatsApp pairing successful")
		case "timeout":
			c.setQRCode("")
			c.setStatus(StatusDisconnected)
			logger.Warn("WhatsApp QR code timeout")
		case "error":
			c.setQRCode("")
			c.setStatus(StatusDisconnected)
			logger.Error("WhatsApp pairing error", "error", evt.Error)
		}
	}
}

// Reconnect attempts to reconnect with existing credentials
func (c *Client) Reconnect(_ context.Context) error {
	if c.deviceStore.ID == nil {
		return errNoExistingSessionToReconnect
	}

	c.setStatus(StatusConnecting)
	c.client = c.newProtocolClient()

	if err := c.client.Connect(); err != nil {
		c.setStatus(StatusDisconnected)
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	c.setStatus(StatusConnected)
	logger.Info("WhatsApp reconnected successfully")
	return nil
}

// Disconnect cleanly disconnects the WhatsApp client
func (c *Client) Disconnect() {
	if c.client != nil {
		c.client.Disconnect()
	}
	c.setStatus(StatusDisconnected)
	c.setQRCode("")
}

// Logout disconnects and removes the device credentials
func (c *Client) Logout(ctx context.Context) error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Logout(ctx); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}

	c.setStatus(StatusDisconnected)
	c.setQRCode("")

	if c.container == nil {
		return errNoDeviceStoreContainer
	}

	deviceStore, err := c.container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get new device: %w", err)
	}
	c.deviceStore = deviceStore

	return nil
}

// Send delivers a plain text message to a phone number and returns the
// WhatsApp message id.
func (c *Client) Send(ctx context.Context, phone, body string) (string, error) {
	if c == nil || c.client == nil || !c.IsConnected() {
		return "", ErrNotConnected
	}

	jid, err := PhoneJID(phone)
	if err != nil {
		return "", err
	}

	return c.sendTo(ctx, jid, body)
}

func (c *Client) sendTo(ctx context.Context, jid types.JID, body string) (string, error) {
	resp, err := c.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: proto.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("failed to send whatsapp message: %w", err)
	}

	return resp.ID, nil
}

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		c.setStatus(StatusConnected)
		logger.Info("WhatsApp connected")

	case *events.Disconnected:
		c.setStatus(StatusDisconnected)
		logger.Warn("WhatsApp disconnected")

	case *events.LoggedOut:
		c.setStatus(StatusDisconnected)
		logger.Warn("WhatsApp logged out")

	case *events.Message:
		c.handleMessage(v)
	}
}

// handleMessage passes incoming direct messages to the reply handler.
func (c *Client) handleMessage(evt *events.Message) {
	if evt.Info.IsGroup || isOutgoingMessage(evt.Info) || c.onReply == nil {
		return
	}

	text := extractMessageText(evt)
	if text == "" {
		return
	}

	from := resolveOtherPartyJID(evt.Info)
	phone := from.User

	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	reply, err := c.onReply(ctx, phone, text)
	if err != nil {
		logger.Error("Failed to handle WhatsApp message", "phone", logging.MaskPhone(phone), "error", err)
		return
	}
	if reply == "" {
		return
	}

	if _, err := c.sendTo(ctx, evt.Info.Chat, reply); err != nil {
		logger.Error("Failed to reply on WhatsApp", "phone", logging.MaskPhone(phone), "error", err)
	}
}

func isOutgoingMessage(info types.MessageInfo) bool {
	if info.IsFromMe {
		return true
	}

	return info.DeviceSentMeta != nil && info.DeviceSentMeta.DestinationJID != ""
}

func isPhoneJID(jid types.JID) bool {
	return jid.User != "" && (jid.Server == types.DefaultUserServer || jid.Server == types.LegacyUserServer)
}

// preferPhoneNumberJID returns the phone-addressed JID when the primary one
// is a linked-identity (LID) address.
func preferPhoneNumberJID(primary, alternate types.JID) types.JID {
	if isPhoneJID(primary) {
		return primary
	}

	if isPhoneJID(alternate) || primary.IsEmpty() {
		return alternate
	}

	return primary
}

func resolveOtherPartyJID(info types.MessageInfo) types.JID {
	if isOutgoingMessage(info) {
		if info.DeviceSentMeta != nil && info.DeviceSentMeta.DestinationJID != "" {
			dest, err := types.ParseJID(info.DeviceSentMeta.DestinationJID)
			if err == nil && isPhoneJID(dest) {
				return dest
			}
		}

		return preferPhoneNumberJID(info.Chat, info.RecipientAlt)
	}

	if !info.Sender.IsEmpty() {
		return preferPhoneNumberJID(info.Sender, info.SenderAlt)
	}

	return info.Chat
}

func extractMessageText(evt *events.Message) string {
	if evt == nil {
		return ""
	}

	messageEvent := evt.UnwrapRaw()
	if messageEvent == nil || messageEvent.Message == nil {
		return ""
	}

	message := messageEvent.Message
	if text := strings.TrimSpace(message.GetConversation()); text != "" {
		return text
	}

	if extended := message.GetExtendedTextMessage(); extended != nil {
		return strings.TrimSpace(extended.GetText())
	}

	return ""
}

// IsConnected returns true if WhatsApp is connected
func (c *Client) IsConnected() bool {
	return c.GetStatus() == StatusConnected
}

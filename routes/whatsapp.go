/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/whatsapp"
)

var whatsappClientFn = whatsapp.GetClient

// WhatsAppStatus reports the connection state and, while pairing, the QR
// code as a base64 PNG.
func WhatsAppStatus(c flamego.Context) {
	response := map[string]any{
		"status":    "unavailable",
		"qr_code":   "",
		"connected": false,
	}

	if client := whatsappClientFn(); client != nil {
		response["status"] = string(client.GetStatus())
		response["qr_code"] = client.GetQRCode()
		response["connected"] = client.IsConnected()
	}

	writeJSON(c, http.StatusOK, response)
}

// WhatsAppConnect starts connecting or pairing in the background.
func WhatsAppConnect(c flamego.Context) {
	client := whatsappClientFn()
	if client == nil {
		writeError(c, http.StatusServiceUnavailable, "WhatsApp is not available")
		return
	}

	if client.IsConnected() {
		writeJSON(c, http.StatusOK, map[string]any{"message": "WhatsApp already connected", "status": client.GetStatus()})
		return
	}

	// The connection outlives the request.
	go func() {
		if err := client.Connect(context.Background()); err != nil {
			logger.Error("WhatsApp connect failed", "error", err)
		}
	}()

	writeJSON(c, http.StatusAccepted, map[string]any{"message": "WhatsApp connection started"})
}

// WhatsAppDisconnect logs the linked device out.
func WhatsAppDisconnect(c flamego.Context) {
	client := whatsappClientFn()
	if client == nil {
		writeError(c, http.StatusServiceUnavailable, "WhatsApp is not available")
		return
	}

	if err := client.Logout(c.Request().Context()); err != nil {
		logger.Error("WhatsApp logout failed", "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to disconnect WhatsApp")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"message": "WhatsApp disconnected"})
}

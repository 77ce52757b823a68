/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import "errors"

var (
	// ErrNotConnected is returned when a message is sent before the device is linked.
	ErrNotConnected = errors.New("whatsapp client is not connected")
	// ErrInvalidPhone is returned for numbers too short to address a chat.
	ErrInvalidPhone = errors.New("invalid whatsapp phone number")

	errNoExistingSessionToReconnect = errors.New("no existing session to reconnect")
	errNoDeviceStoreContainer       = errors.New("whatsapp SQL store container is unavailable")
)

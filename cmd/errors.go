/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errJWTSecretRequired     = errors.New("JWT_SECRET_KEY is required outside development")
	errInvalidTokenTTL       = errors.New("token lifetimes must be positive")
	errInvalidNotifyChannel  = errors.New("NOTIFY_CHANNEL must be one of: sms, whatsapp, log")
	errWhatsAppDisabled      = errors.New("NOTIFY_CHANNEL=whatsapp requires WHATSAPP_ENABLED")
	errInvalidRuntimeEnv     = errors.New(runtimeEnvVar + " must be one of: development, dev, production, prod")
	errOutputRequired        = errors.New("--out is required")
)

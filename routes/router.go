/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"github.com/flamego/flamego"
)

// Mount registers every HTTP route on f. The caller must have mapped an
// *App and installed the session middleware.
func Mount(f *flamego.Flame) {
	f.Get("/healthz", Healthz)
	f.Get("/readyz", Readyz)

	f.Group("/api", func() {
		f.Post("/auth/register", Register)
		f.Post("/auth/login", Login)
		f.Post("/auth/refresh", Refresh)

		f.Group("", func() {
			f.Get("/auth/me", Me)
			f.Post("/auth/logout", Logout)

			f.Get("/users/me", GetCurrentUser)
			f.Put("/users/me", UpdateCurrentUser)
			f.Get("/users", RequireAdmin, ListUsers)

			f.Get("/user-profile", GetProfile)
			f.Post("/user-profile", CreateProfile)
			f.Put("/user-profile", UpdateProfile)
			f.Delete("/user-profile", DeleteProfile)

			f.Get("/prediction/patient-data", GetPatientData)
			f.Post("/prediction/patient-data", SavePatientData)
			f.Post("/prediction/predict", Predict)
			f.Get("/prediction/history", PredictionHistory)

			f.Get("/bp/readings", ListReadings)
			f.Post("/bp/readings", AddReading)
			f.Post("/bp/upload/csv", UploadCSV)
			f.Post("/bp/upload/image", UploadImage)
			f.Get("/bp/analytics", Analytics)
			f.Get("/bp/anomalies", Anomalies)
			f.Get("/bp/forecast", Forecast)
			f.Get("/bp/report", GenerateReport)
			f.Get("/bp/report/view", ViewReport)
			f.Get("/bp/report/download", DownloadReport)

			f.Get("/medications", ListMedications)
			f.Post("/medications", CreateMedication)
			f.Post("/medications/verify", VerifyMedication)
			f.Get("/medications/analytics", MedicationAdherence)
			f.Get("/medications/{id}", GetMedication)
			f.Put("/medications/{id}", UpdateMedication)
			f.Delete("/medications/{id}", DeleteMedication)
			f.Get("/medications/{id}/reminders", ListReminders)
			f.Post("/medications/{id}/reminders", CreateReminder)

			f.Group("/admin/whatsapp", func() {
				f.Get("/status", WhatsAppStatus)
				f.Post("/connect", WhatsAppConnect)
				f.Post("/disconnect", WhatsAppDisconnect)
			}, RequireAdmin)
		}, RequireAuth)
	}, NoCacheHeaders())

	f.NotFound(NotFound)
}

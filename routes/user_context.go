/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"reflect"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/hypertrack/db"
)

// Identity is the authenticated caller of a request. RequireAuth maps it
// into the request injector so handlers can take it as an argument.
type Identity struct {
	UserID string
	Role   db.Role
	// Via is "token" or "session".
	Via string
}

// IsAdmin reports whether the caller has the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == db.RoleAdmin
}

var identityType = reflect.TypeOf(&Identity{})

// requestIdentity returns the identity mapped for the request, if any.
func requestIdentity(c flamego.Context) *Identity {
	v := c.Value(identityType)
	if !v.IsValid() || v.IsNil() {
		return nil
	}

	id, _ := v.Interface().(*Identity)

	return id
}

func bearerToken(c flamego.Context) (string, bool) {
	header := strings.TrimSpace(c.Request().Header.Get("Authorization"))
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func getSessionUserID(s session.Session) (string, bool) {
	userID, ok := s.Get(db.SessionKeyUserID).(string)
	if !ok || userID == "" {
		return "", false
	}

	return userID, true
}

// sessionIdentity returns the identity stored in an authenticated cookie
// session.
func sessionIdentity(s session.Session) (*Identity, bool) {
	if s == nil {
		return nil, false
	}

	authenticated, ok := s.Get(db.SessionKeyAuthenticated).(bool)
	if !ok || !authenticated {
		return nil, false
	}

	userID, ok := getSessionUserID(s)
	if !ok {
		return nil, false
	}

	role, _ := s.Get(db.SessionKeyRole).(string)
	if role == "" {
		role = string(db.RoleUser)
	}

	return &Identity{UserID: userID, Role: db.Role(role), Via: "session"}, true
}

func setSessionIdentity(s session.Session, user *db.User) {
	s.Set(db.SessionKeyAuthenticated, true)
	s.Set(db.SessionKeyUserID, user.ID.String())
	s.Set(db.SessionKeyRole, string(user.Role))
}

func clearSessionIdentity(s session.Session) {
	s.Delete(db.SessionKeyAuthenticated)
	s.Delete(db.SessionKeyUserID)
	s.Delete(db.SessionKeyRole)
}

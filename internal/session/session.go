// Package session resolves the authenticated user of a request.
package session

import (
	"errors"
	"net/http"

	"github.com/jxstanford/bokeh/internal/document/model"
	"github.com/jxstanford/bokeh/middleware"
)

var ErrNoUser = errors.New("no authenticated user in session")

// CurrentUser returns the user the auth middleware attached to r.
func CurrentUser(r *http.Request) (*model.User, error) {
	userID, _ := r.Context().Value(middleware.UserIDKey).(string)
	if userID == "" {
		return nil, ErrNoUser
	}
	username, _ := r.Context().Value(middleware.UsernameKey).(string)
	if username == "" {
		username = userID
	}
	return &model.User{ID: userID, Username: username}, nil
}

// Manager exposes CurrentUser as a value for handlers that take a session source.
type Manager struct{}

func (Manager) CurrentUser(r *http.Request) (*model.User, error) {
	return CurrentUser(r)
}

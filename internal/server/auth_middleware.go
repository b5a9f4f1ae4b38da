package server

import (
	"crypto/subtle"
	"net/http"
)

// TokenAuth guards the websocket endpoint with a shared token passed as the
// "token" query parameter. An empty token lets everyone in.
type TokenAuth struct {
	Token string
}

func (a TokenAuth) Name() string { return "TokenAuth" }

// OnConnect checks the upgrade request before the connection is accepted.
func (a TokenAuth) OnConnect(r *http.Request) error {
	if a.Token == "" {
		return nil
	}
	got := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.Token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

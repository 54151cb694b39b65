package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
)

// TokenAuth admits a websocket client when its token query parameter
// matches. An empty token admits everyone.
type TokenAuth struct {
	Token string
}

// OnConnect checks the upgrade request before the handshake completes.
func (a TokenAuth) OnConnect(r *http.Request) error {
	if a.Token == "" {
		return nil
	}
	token := r.URL.Query().Get("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return fmt.Errorf("%w: bad token from %s", ErrUnauthorized, r.RemoteAddr)
	}
	return nil
}

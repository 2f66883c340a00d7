package auth

import (
	"net/http"

	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/gorilla/sessions"
)

// RequestStorage keeps the durable session entries in the gorilla session
// of the current request. Writes are flushed to the response immediately,
// so the request's ResponseWriter must not have written its header yet.
type RequestStorage struct {
	sess *sessions.Session
	w    http.ResponseWriter
	r    *http.Request
}

// NewRequestStorage wraps sess for the given exchange.
func NewRequestStorage(sess *sessions.Session, w http.ResponseWriter, r *http.Request) *RequestStorage {
	return &RequestStorage{sess: sess, w: w, r: r}
}

func (s *RequestStorage) Load() (appstate.Entries, bool) {
	tok, okTok := s.sess.Values[appstate.KeyAccessToken].(string)
	user, okUser := s.sess.Values[appstate.KeyUser].(string)
	if !okTok || !okUser {
		return appstate.Entries{}, false
	}
	return appstate.Entries{AccessToken: tok, User: user}, true
}

func (s *RequestStorage) Save(e appstate.Entries) error {
	s.sess.Values[appstate.KeyAccessToken] = e.AccessToken
	s.sess.Values[appstate.KeyUser] = e.User
	return s.sess.Save(s.r, s.w)
}

func (s *RequestStorage) Clear() error {
	delete(s.sess.Values, appstate.KeyAccessToken)
	delete(s.sess.Values, appstate.KeyUser)
	return s.sess.Save(s.r, s.w)
}

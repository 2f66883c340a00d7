// internal/app/store/sessions/store.go
package sessions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/bhangaar/internal/app/system/timeouts"
	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	gsessions "github.com/gorilla/sessions"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is where browser sessions are kept.
const CollectionName = "browser_sessions"

// Record is one browser session. Only the id travels in the cookie; the
// bearer token and identity record stay server-side.
type Record struct {
	ID        string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	UpdatedAt time.Time         `bson:"updated_at"`
	ExpiresAt time.Time         `bson:"expires_at"`
}

// ErrUnsupportedValue is returned by Save for non-string session values.
var ErrUnsupportedValue = errors.New("sessions: only string keys and values are stored")

// Store is a gorilla sessions.Store backed by MongoDB.
type Store struct {
	c       *mongo.Collection
	codecs  []securecookie.Codec
	Options *gsessions.Options
	now     func() time.Time
}

// New returns a Store on db. keyPairs sign (and optionally encrypt) the id
// cookie, as with gorilla's CookieStore.
func New(db *mongo.Database, opts *gsessions.Options, keyPairs ...[]byte) *Store {
	if opts == nil {
		opts = &gsessions.Options{Path: "/", MaxAge: 86400 * 30, HttpOnly: true}
	}
	cp := *opts
	codecs := securecookie.CodecsFromPairs(keyPairs...)
	for _, c := range codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(cp.MaxAge)
		}
	}
	return &Store{
		c:       db.Collection(CollectionName),
		codecs:  codecs,
		Options: &cp,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EnsureIndexes creates the TTL index that lets MongoDB drop expired
// sessions on its own.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("idx_browser_sessions_ttl").SetExpireAfterSeconds(0),
	})
	return err
}

// Get returns a cached session for the request, creating it on first use.
func (s *Store) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New returns the session named by the request's cookie, or a new one.
// A cookie that does not decode, or names an expired record, yields a new
// session; only the decode case returns an error.
func (s *Store) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}
	var id string
	if err := securecookie.DecodeMulti(name, c.Value, &id, s.codecs...); err != nil {
		return session, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Store())
	defer cancel()
	rec, found, err := s.load(ctx, id)
	if err != nil {
		return session, err
	}
	if !found {
		return session, nil
	}
	session.ID = id
	for k, v := range rec.Values {
		session.Values[k] = v
	}
	session.IsNew = false
	return session, nil
}

// Save writes the session and refreshes its cookie. A negative MaxAge
// deletes the record and expires the cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Store())
	defer cancel()

	if session.Options.MaxAge < 0 {
		if session.ID != "" {
			if _, err := s.c.DeleteOne(ctx, bson.M{"_id": session.ID}); err != nil {
				return fmt.Errorf("delete session: %w", err)
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	values := make(map[string]string, len(session.Values))
	for k, v := range session.Values {
		ks, okK := k.(string)
		vs, okV := v.(string)
		if !okK || !okV {
			return ErrUnsupportedValue
		}
		values[ks] = vs
	}

	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := s.now()
	rec := Record{
		ID:        session.ID,
		Values:    values,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Duration(session.Options.MaxAge) * time.Second),
	}
	_, err := s.c.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Count returns how many unexpired sessions are stored.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"expires_at": bson.M{"$gt": s.now()}})
}

// Ping checks the collection is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, nil)
}

func (s *Store) load(ctx context.Context, id string) (Record, bool, error) {
	var rec Record
	err := s.c.FindOne(ctx, bson.M{"_id": id, "expires_at": bson.M{"$gt": s.now()}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load session: %w", err)
	}
	return rec, true, nil
}

package core

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

const redisSessionPrefix = "session:"

// NewRedisClient returns a configured go-redis client from URL (e.g., redis://localhost:6379/0).
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// RedisStore is a sessions.Store keeping session values in Redis.
// The cookie only carries the signed session id.
type RedisStore struct {
	client     *redis.Client
	Codecs     []securecookie.Codec
	Options    *sessions.Options
	serializer securecookie.GobEncoder
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore returns a store signing session ids with keyPairs (see securecookie.CodecsFromPairs).
func NewRedisStore(client *redis.Client, keyPairs ...[]byte) *RedisStore {
	return &RedisStore{
		client: client,
		Codecs: securecookie.CodecsFromPairs(keyPairs...),
		Options: &sessions.Options{
			Path:   "/",
			MaxAge: defaultSessionMaxAge,
		},
	}
}

// Get returns a cached session for the request or loads it.
func (s *RedisStore) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New loads the session referenced by the request cookie, or returns a fresh one.
// An expired or deleted server-side entry yields a fresh session without error.
func (s *RedisStore) New(r *http.Request, name string) (*sessions.Session, error) {
	session := sessions.NewSession(s, name)
	opts := *s.Options
	session.Options = &opts
	session.IsNew = true

	c, errCookie := r.Cookie(name)
	if errCookie != nil {
		return session, nil
	}
	if err := securecookie.DecodeMulti(name, c.Value, &session.ID, s.Codecs...); err != nil {
		session.ID = ""
		return session, err
	}
	found, err := s.load(r.Context(), session)
	if err != nil {
		return session, err
	}
	if !found {
		session.ID = ""
		return session, nil
	}
	session.IsNew = false
	return session, nil
}

// Save writes the session to Redis and refreshes the cookie.
// MaxAge < 0 deletes both.
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *sessions.Session) error {
	ctx := r.Context()
	if session.Options != nil && session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.client.Del(ctx, s.key(session.ID)).Err(); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if session.ID == "" {
		id, err := newSessionID()
		if err != nil {
			return err
		}
		session.ID = id
	}
	if err := s.save(ctx, session); err != nil {
		return err
	}
	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.Codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

func (s *RedisStore) key(id string) string {
	return redisSessionPrefix + id
}

func (s *RedisStore) ttl(session *sessions.Session) time.Duration {
	maxAge := defaultSessionMaxAge
	if session.Options != nil && session.Options.MaxAge > 0 {
		maxAge = session.Options.MaxAge
	}
	return time.Duration(maxAge) * time.Second
}

func (s *RedisStore) save(ctx context.Context, session *sessions.Session) error {
	b, err := s.serializer.Serialize(session.Values)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.ID), b, s.ttl(session)).Err()
}

func (s *RedisStore) load(ctx context.Context, session *sessions.Session) (bool, error) {
	b, err := s.client.Get(ctx, s.key(session.ID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.serializer.Deserialize(b, &session.Values); err != nil {
		return false, err
	}
	return true, nil
}

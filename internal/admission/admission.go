// Package admission decides whether a request may reach the model: the caller
// must present the API secret and must not have been admitted within the
// throttle window.
package admission

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"
)

const DefaultWindow = 30 * time.Second

// ErrUnauthorized is returned for a missing or wrong API key.
var ErrUnauthorized = errors.New("unauthorized access")

// RateLimitedError is returned when the client was admitted too recently.
type RateLimitedError struct {
	Wait time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: wait %d seconds", e.Seconds())
}

// Seconds is the remaining wait rounded down to whole seconds.
func (e *RateLimitedError) Seconds() int {
	return int(e.Wait / time.Second)
}

// Store keeps the last admission time per client.
type Store interface {
	// Admit records now for client and returns admitted=true when the client
	// has no record or its record is at least window old. Otherwise nothing
	// is written and last is the recorded time.
	Admit(ctx context.Context, client string, now time.Time, window time.Duration) (last time.Time, admitted bool, err error)
	Close() error
}

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

func (a *Authenticator) Check(key string) error {
	if len(a.secret) == 0 || key == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(key), a.secret) != 1 {
		return ErrUnauthorized
	}
	return nil
}

type Throttle struct {
	store  Store
	window time.Duration
	now    func() time.Time
}

// NewThrottle builds a throttle over store. A nil now uses time.Now.
func NewThrottle(store Store, window time.Duration, now func() time.Time) *Throttle {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Throttle{store: store, window: window, now: now}
}

func (t *Throttle) Window() time.Duration { return t.window }

// Allow admits client or returns a *RateLimitedError with the remaining wait.
func (t *Throttle) Allow(ctx context.Context, client string) error {
	now := t.now()
	last, admitted, err := t.store.Admit(ctx, client, now, t.window)
	if err != nil {
		return fmt.Errorf("admission store: %w", err)
	}
	if admitted {
		return nil
	}
	return &RateLimitedError{Wait: t.remaining(now.Sub(last))}
}

// remaining keeps the reported wait within [1s, window-1s].
func (t *Throttle) remaining(elapsed time.Duration) time.Duration {
	wait := (t.window - elapsed).Truncate(time.Second)
	if wait < time.Second {
		wait = time.Second
	}
	if ceiling := t.window.Truncate(time.Second) - time.Second; ceiling >= time.Second && wait > ceiling {
		wait = ceiling
	}
	return wait
}

// Gate runs authentication before the throttle so bad keys never consume a
// client's slot.
type Gate struct {
	auth     *Authenticator
	throttle *Throttle
}

func NewGate(auth *Authenticator, throttle *Throttle) *Gate {
	return &Gate{auth: auth, throttle: throttle}
}

func (g *Gate) Admit(ctx context.Context, apiKey, client string) error {
	if err := g.auth.Check(apiKey); err != nil {
		return err
	}
	return g.throttle.Allow(ctx, client)
}

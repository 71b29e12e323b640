// Package otp issues and verifies the short-lived numeric codes used as
// the second authentication factor.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// CodeTTL is how long an issued code stays valid.
const CodeTTL = 5 * time.Minute

// Sink delivers a freshly issued code to the account holder out-of-band.
type Sink interface {
	SendOTP(ctx context.Context, email, code string) error
}

type record struct {
	code      string
	expiresAt time.Time
}

// Store holds live codes keyed by email, one live code per email: issuing
// again overwrites the previous record. State is process-local and lost on
// restart, which is intentional for a secret this short-lived.
type Store struct {
	mu      sync.Mutex
	records map[string]record
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{records: make(map[string]record), now: time.Now}
}

// Put activates code for email, replacing any prior live code.
func (s *Store) Put(email, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[email] = record{code: code, expiresAt: s.now().Add(CodeTTL)}
}

// Verify reports whether code matches the live record for email. Missing,
// expired and mismatched records all fail closed. A matching record is
// consumed, so the same code never verifies twice.
func (s *Store) Verify(email, code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok || s.now().After(rec.expiresAt) {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(rec.code), []byte(code)) != 1 {
		return false
	}
	delete(s.records, email)
	return true
}

// Issuer generates codes, hands them to the notification sink and records
// them in the store.
type Issuer struct {
	store *Store
	sink  Sink
}

func NewIssuer(store *Store, sink Sink) *Issuer {
	return &Issuer{store: store, sink: sink}
}

// Issue generates a 6-digit code for email and delivers it via the sink.
// The record is written only after the sink accepts the send, so a failed
// delivery leaves no live code behind.
func (i *Issuer) Issue(ctx context.Context, email string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	if err := i.sink.SendOTP(ctx, email, code); err != nil {
		return fmt.Errorf("sending otp: %w", err)
	}
	i.store.Put(email, code)
	return nil
}

// Verify checks a candidate code against the live record for email.
func (i *Issuer) Verify(email, code string) bool {
	return i.store.Verify(email, code)
}

// generateCode returns a uniformly random code in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/FinVerify/FV-Backend/internal/db"
	"github.com/FinVerify/FV-Backend/internal/geoip"
	"github.com/google/uuid"
)

// Recorder appends login audit records off the request path. Each Record
// call dispatches one write; failures go to an error channel drained by a
// logging goroutine and never change the login response.
type Recorder struct {
	geo  *geoip.Client
	errs chan error
	wg   sync.WaitGroup
}

// NewRecorder creates a Recorder. geo may be nil, in which case audit
// records carry an empty location object.
func NewRecorder(geo *geoip.Client) *Recorder {
	r := &Recorder{
		geo:  geo,
		errs: make(chan error, 16),
	}
	go func() {
		for err := range r.errs {
			log.Printf("login audit: %v", err)
		}
	}()
	return r
}

// Record dispatches a best-effort audit write for a successful login.
func (r *Recorder) Record(account *Account, tokenStr, ip string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Failed or absent lookups leave the location empty; they must not
		// block the audit append.
		geo := JSONB("{}")
		if r.geo != nil {
			loc, err := r.geo.Lookup(ctx, ip)
			if err != nil {
				r.errs <- fmt.Errorf("geo lookup for %s: %w", ip, err)
			} else if loc != nil {
				if encoded, err := json.Marshal(loc); err == nil {
					geo = JSONB(encoded)
				}
			}
		}

		entry := LoginLog{
			ID:          uuid.NewString(),
			AccountID:   account.ID,
			Email:       account.Email,
			Username:    account.Username,
			Token:       tokenStr,
			IPAddress:   ip,
			GeoLocation: geo,
		}
		if err := db.DB.WithContext(ctx).Create(&entry).Error; err != nil {
			r.errs <- fmt.Errorf("appending login log: %w", err)
		}
	}()
}

// Wait blocks until all in-flight audit writes have finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}

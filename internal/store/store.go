// Package store persists principal records and the shared request-number
// counter in Redis.
//
// Per-principal writes go through a WATCH/MULTI/EXEC optimistic transaction
// with bounded retries, so concurrent read-modify-write sequences (OTP issue
// and verify, reset set and clear, vendor submission) never lose updates. The
// request-number counter is a single INCR: an atomic increment-and-fetch,
// never a read followed by a write.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/arvendel/marketauth/role"
)

const (
	defaultPrefix = "mp"
	maxTxRetries  = 4

	counterVendorRequest = "vendor_request"
)

var (
	ErrNotFound          = errors.New("principal not found")
	ErrDuplicateIdentity = errors.New("identity already registered")
	ErrTxConflict        = errors.New("too many concurrent updates")
	ErrUnavailable       = errors.New("principal store unavailable")
)

// Store is the Redis-backed credential store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store with the given key prefix (default "mp").
func New(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) principalKey(id string) string {
	return s.prefix + ":p:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":e:" + strings.ToLower(email)
}

func (s *Store) phoneKey(phone string) string {
	return s.prefix + ":ph:" + phone
}

func (s *Store) providerKey(provider, providerUserID string) string {
	return s.prefix + ":oauth:" + provider + ":" + providerUserID
}

func (s *Store) roleKey(r role.Role) string {
	return s.prefix + ":role:" + r.String()
}

func (s *Store) vendorKey(status VendorStatus) string {
	return s.prefix + ":vreq:" + string(status)
}

func (s *Store) counterKey(name string) string {
	return s.prefix + ":ctr:" + name
}

// Create persists a new principal. Email and phone indexes are claimed with
// SETNX first so a duplicate identity can never shadow an existing account.
func (s *Store) Create(ctx context.Context, p *Principal) error {
	encoded, err := encodePrincipal(p)
	if err != nil {
		return err
	}

	var claimed []string
	release := func() {
		if len(claimed) > 0 {
			_ = s.redis.Del(context.WithoutCancel(ctx), claimed...).Err()
		}
	}

	if p.Email != "" {
		ok, err := s.redis.SetNX(ctx, s.emailKey(p.Email), p.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !ok {
			return ErrDuplicateIdentity
		}
		claimed = append(claimed, s.emailKey(p.Email))
	}
	if p.Phone != "" {
		ok, err := s.redis.SetNX(ctx, s.phoneKey(p.Phone), p.ID, 0).Result()
		if err != nil {
			release()
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !ok {
			release()
			return ErrDuplicateIdentity
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.principalKey(p.ID), encoded, 0)
		pipe.SAdd(ctx, s.roleKey(p.Role), p.ID)
		for provider, providerUserID := range p.Providers {
			pipe.Set(ctx, s.providerKey(provider, providerUserID), p.ID, 0)
		}
		if p.Vendor != nil {
			pipe.SAdd(ctx, s.vendorKey(p.Vendor.Status), p.ID)
		}
		return nil
	})
	if err != nil {
		release()
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// GetByID loads a principal record by id.
func (s *Store) GetByID(ctx context.Context, id string) (*Principal, error) {
	data, err := s.redis.Get(ctx, s.principalKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decodePrincipal(data)
}

// GetByEmail resolves the email index and loads the record.
func (s *Store) GetByEmail(ctx context.Context, email string) (*Principal, error) {
	return s.getByIndex(ctx, s.emailKey(email))
}

// GetByPhone resolves the phone index and loads the record.
func (s *Store) GetByPhone(ctx context.Context, phone string) (*Principal, error) {
	return s.getByIndex(ctx, s.phoneKey(phone))
}

// GetByProvider resolves the OAuth linkage index and loads the record.
func (s *Store) GetByProvider(ctx context.Context, provider, providerUserID string) (*Principal, error) {
	return s.getByIndex(ctx, s.providerKey(provider, providerUserID))
}

func (s *Store) getByIndex(ctx context.Context, key string) (*Principal, error) {
	id, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// Update applies mutate to the current record inside a WATCH transaction and
// persists the result together with any derived index changes. The callback
// may be invoked multiple times; returning an error aborts without writing.
func (s *Store) Update(ctx context.Context, id string, mutate func(*Principal) error) (*Principal, error) {
	key := s.principalKey(id)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var updated *Principal

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			before, err := decodePrincipal(data)
			if err != nil {
				return err
			}

			after := before.Clone()
			if err := mutate(after); err != nil {
				return err
			}
			after.UpdatedAt = nowUnix()

			encoded, err := encodePrincipal(after)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				s.applyIndexChanges(ctx, pipe, before, after)
				return nil
			})
			if err != nil {
				return err
			}

			updated = after
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrNotFound
			}
			// Mutate-callback outcomes pass through untouched so callers can
			// match their own sentinels.
			return nil, err
		}

		return updated, nil
	}

	return nil, ErrTxConflict
}

func (s *Store) applyIndexChanges(ctx context.Context, pipe redis.Pipeliner, before, after *Principal) {
	if before.Role != after.Role {
		pipe.SRem(ctx, s.roleKey(before.Role), before.ID)
		pipe.SAdd(ctx, s.roleKey(after.Role), after.ID)
	}

	beforeStatus := before.VendorStatusOrNone()
	afterStatus := after.VendorStatusOrNone()
	if beforeStatus != afterStatus {
		if before.Vendor != nil {
			pipe.SRem(ctx, s.vendorKey(before.Vendor.Status), before.ID)
		}
		if after.Vendor != nil {
			pipe.SAdd(ctx, s.vendorKey(after.Vendor.Status), after.ID)
		}
	}

	for provider, providerUserID := range after.Providers {
		if before.Providers[provider] != providerUserID {
			pipe.Set(ctx, s.providerKey(provider, providerUserID), after.ID, 0)
		}
	}
}

// NextRequestNumber atomically increments and returns the shared vendor
// request counter. Numbers are strictly monotonic and never reused.
func (s *Store) NextRequestNumber(ctx context.Context) (int64, error) {
	n, err := s.redis.Incr(ctx, s.counterKey(counterVendorRequest)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n, nil
}

// MembersByRole returns the ids of all principals currently holding the role.
func (s *Store) MembersByRole(ctx context.Context, r role.Role) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.roleKey(r)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}

// VendorRequestIDs returns the ids of principals whose request is in the
// given status.
func (s *Store) VendorRequestIDs(ctx context.Context, status VendorStatus) ([]string, error) {
	ids, err := s.redis.SMembers(ctx, s.vendorKey(status)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}

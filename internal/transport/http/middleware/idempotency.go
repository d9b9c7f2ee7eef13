package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"peopleops/internal/platform/querier"
)

// ReplayWindow is how long a stored response answers retries of its key.
const ReplayWindow = 24 * time.Hour

// PendingLease is how long a reservation without a response blocks its key.
// After that the request is assumed lost and the key can be taken again.
const PendingLease = time.Minute

var (
	ErrIdempotencyConflict   = errors.New("idempotency key reused with a different payload")
	ErrIdempotencyInProgress = errors.New("idempotency key is held by a request still in flight")
)

// IdempotencyStore keeps the response of a keyed create per identity and
// endpoint. A nil store disables replay.
type IdempotencyStore struct {
	db  querier.Querier
	now func() time.Time
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db, now: time.Now}
}

// RequestHash fingerprints a raw request body.
func RequestHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Reserve claims key before the write runs. reserved is true when the caller
// now owns the key and must finish with Save or Release. Otherwise the stored
// response of an earlier identical request is returned for replay. A live key
// with another body yields ErrIdempotencyConflict and an unanswered one
// yields ErrIdempotencyInProgress.
func (s *IdempotencyStore) Reserve(ctx context.Context, identityID, endpoint, key, requestHash string) (stored json.RawMessage, reserved bool, err error) {
	if s == nil || s.db == nil {
		return nil, true, nil
	}
	now := s.now()
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (identity_id, endpoint, key, request_hash, response_json, created_at)
    VALUES ($1, $2, $3, $4, NULL, $5)
    ON CONFLICT (identity_id, key, endpoint) DO UPDATE
      SET request_hash = EXCLUDED.request_hash,
          response_json = NULL,
          created_at = EXCLUDED.created_at
    WHERE idempotency_keys.created_at <= $6
       OR (idempotency_keys.response_json IS NULL AND idempotency_keys.created_at <= $7)
  `, identityID, endpoint, key, requestHash, now, now.Add(-ReplayWindow), now.Add(-PendingLease))
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 1 {
		return nil, true, nil
	}

	var hash string
	err = s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE identity_id::text = $1 AND endpoint = $2 AND key = $3
  `, identityID, endpoint, key).Scan(&hash, &stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Released between the insert and this read.
		return nil, false, ErrIdempotencyInProgress
	case err != nil:
		return nil, false, err
	case hash != requestHash:
		return nil, false, ErrIdempotencyConflict
	case stored == nil:
		return nil, false, ErrIdempotencyInProgress
	}
	return stored, false, nil
}

// Save attaches the response to a key reserved by the same request.
func (s *IdempotencyStore) Save(ctx context.Context, identityID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    UPDATE idempotency_keys
    SET response_json = $5, created_at = $6
    WHERE identity_id::text = $1 AND endpoint = $2 AND key = $3 AND request_hash = $4 AND response_json IS NULL
  `, identityID, endpoint, key, requestHash, response, s.now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release drops an unanswered reservation so a failed request can be retried
// under the same key.
func (s *IdempotencyStore) Release(ctx context.Context, identityID, endpoint, key, requestHash string) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE identity_id::text = $1 AND endpoint = $2 AND key = $3 AND request_hash = $4 AND response_json IS NULL
  `, identityID, endpoint, key, requestHash)
	return err
}

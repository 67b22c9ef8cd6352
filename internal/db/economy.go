package db

import (
	"context"
	"errors"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blackguard-bot/blackguard-economy/internal/db/model"
	"github.com/blackguard-bot/blackguard-economy/internal/observability/metrics"
)

// errWriteConflict signals that a concurrent writer committed between our
// read and our replace; the whole read-mutate-write cycle is retried.
var errWriteConflict = errors.New("economy document write conflict")

func (db *Database) GetEconomyDoc(ctx context.Context) (*model.EconomyDocument, error) {
	filter := bson.M{"_id": model.EconomyDocID}
	res := db.collection(model.EconomyCollection).FindOne(ctx, filter)

	var doc model.EconomyDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{
				Key:     model.EconomyDocID,
				Message: "economy document not found",
			}
		}
		return nil, err
	}

	return &doc, nil
}

// InitEconomyDoc inserts the seed document. An existing document surfaces
// as a DuplicateKeyError; bootstrap treats that as already seeded.
func (db *Database) InitEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error {
	_, err := db.collection(model.EconomyCollection).InsertOne(ctx, seed)
	// nil check is inside IsDuplicateKeyError
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateKeyError{
			Key:     model.EconomyDocID,
			Message: err.Error(),
		}
	}
	return err
}

// ResetEconomyDoc replaces the economy document with the seed, wiping all
// wallets and pending withdrawals.
func (db *Database) ResetEconomyDoc(ctx context.Context, seed *model.EconomyDocument) error {
	err := retry.Do(func() error {
		current, err := db.GetEconomyDoc(ctx)
		if err != nil {
			if IsNotFoundError(err) {
				err = db.InitEconomyDoc(ctx, seed)
				// a concurrent writer seeded it first; re-read and replace
				if IsDuplicateKeyError(err) {
					return errWriteConflict
				}
				if err != nil {
					return retry.Unrecoverable(err)
				}
				return nil
			}
			return retry.Unrecoverable(err)
		}

		next := seed.Clone()
		next.Version = current.Version + 1

		filter := bson.M{"_id": model.EconomyDocID, "version": current.Version}
		res, err := db.collection(model.EconomyCollection).ReplaceOne(ctx, filter, next)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		if res.MatchedCount == 0 {
			return errWriteConflict
		}
		return nil
	}, db.updateRetryOptions(ctx)...)

	if errors.Is(err, errWriteConflict) {
		return &ContentionExhaustedError{
			Key:     model.EconomyDocID,
			Message: "economy document reset retries exhausted",
		}
	}
	return err
}

// UpdateEconomyDoc atomically applies mutate to the economy document.
//
// The cycle reads the current document, runs mutate on a deep copy and
// writes the copy back guarded by the version it read. If a concurrent
// writer won the race the whole cycle is retried, so mutate must be a pure
// function of its argument: no timers, no sends, no captured state that
// cannot be recomputed. Side effects belong in the caller, after the
// update resolves. mutate may return ErrSkipUpdate to keep the document
// untouched; any other error aborts without retrying.
//
// The committed document (or the read snapshot when skipped) is returned.
func (db *Database) UpdateEconomyDoc(
	ctx context.Context, mutate func(doc *model.EconomyDocument) error,
) (*model.EconomyDocument, error) {
	var out *model.EconomyDocument

	err := retry.Do(func() error {
		current, err := db.GetEconomyDoc(ctx)
		if err != nil {
			return retry.Unrecoverable(err)
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			if errors.Is(err, ErrSkipUpdate) {
				out = current
				return nil
			}
			return retry.Unrecoverable(err)
		}
		next.Version = current.Version + 1

		filter := bson.M{"_id": model.EconomyDocID, "version": current.Version}
		res, err := db.collection(model.EconomyCollection).ReplaceOne(ctx, filter, next)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		if res.MatchedCount == 0 {
			metrics.RecordEconomyDocConflict()
			log.Ctx(ctx).Debug().
				Int64("version", current.Version).
				Msg("economy document version race lost, retrying")
			return errWriteConflict
		}

		out = next
		return nil
	}, db.updateRetryOptions(ctx)...)

	if err != nil {
		if errors.Is(err, errWriteConflict) {
			return nil, &ContentionExhaustedError{
				Key:     model.EconomyDocID,
				Message: "economy document update retries exhausted",
			}
		}
		return nil, err
	}

	return out, nil
}

func (db *Database) updateRetryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(db.cfg.MaxUpdateRetries),
		retry.Delay(db.cfg.UpdateRetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errWriteConflict)
		}),
	}
}

package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/catalog"
	"github.com/mamoski/relaydeck/internal/composer"
	"github.com/mamoski/relaydeck/internal/models"
)

// Identity is the authenticated operator on whose behalf a submission runs.
type Identity struct {
	UserID string
	Email  string
}

// ProgressFunc receives coarse progress percentages (10, 40, 80, 100) during
// a submission. Values are monotonically non-decreasing and exist purely for
// UI feedback; they are not checkpoints.
type ProgressFunc func(percent int)

// SubmitService runs the two-step submission: relay the upload package to
// the delivery webhook, then record it in user_uploads. The two writes are
// not transactional; a failed record insert after a successful relay call is
// parked in the outbox and reported as ErrPersistenceWrite.
type SubmitService struct {
	relay    RelaySender
	store    RecordStore
	logger   *zap.Logger
	inFlight atomic.Bool
}

func NewSubmitService(relay RelaySender, store RecordStore, logger *zap.Logger) *SubmitService {
	return &SubmitService{
		relay:  relay,
		store:  store,
		logger: logger,
	}
}

// Submit validates the draft, relays it and records it. The draft is
// cleared only on full success so a failed submission can be retried
// manually. Only one submission may run at a time; concurrent calls fail
// fast with ErrSubmitInFlight.
func (s *SubmitService) Submit(ctx context.Context, draft *composer.Draft, identity Identity, progress ProgressFunc) error {
	if progress == nil {
		progress = func(int) {}
	}

	// Preconditions first: no network call happens for an invalid draft.
	if err := draft.ValidateForSubmit(); err != nil {
		return err
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	progress(10)

	payload := RelayPayload{
		Filename:     draft.Filename,
		Asset:        draft.Asset,
		UserID:       identity.UserID,
		UserEmail:    identity.Email,
		Notes:        draft.Notes,
		CaptionIdeas: draft.CaptionIdeas,
		Targets:      resolveTargets(draft.Selections),
	}

	progress(40)

	if err := s.relay.Send(ctx, payload); err != nil {
		s.logger.Error("Relay call failed",
			zap.String("user_id", identity.UserID),
			zap.Error(err))
		return err
	}

	progress(80)

	record := &models.UploadRecord{
		ID:           uuid.NewString(),
		OwnerUserID:  identity.UserID,
		Filename:     draft.Filename,
		Platforms:    platformIDs(draft.Selections),
		Notes:        draft.Notes,
		CaptionIdeas: draft.CaptionIdeas,
		Status:       models.UploadStatusPending,
		UploadedAt:   time.Now(),
	}

	if err := s.store.Insert(ctx, record); err != nil {
		// The relay already acted; park the record for reconciliation
		// instead of silently losing it.
		if outboxErr := s.store.EnqueueOutbox(ctx, record, err); outboxErr != nil {
			s.logger.Error("Upload acknowledged by relay but not recorded anywhere",
				zap.String("record_id", record.ID),
				zap.Error(outboxErr))
		}
		return err
	}

	progress(100)

	s.logger.Info("Submission completed",
		zap.String("record_id", record.ID),
		zap.String("user_id", identity.UserID),
		zap.Strings("platforms", record.Platforms))

	draft.Clear()
	return nil
}

// resolveTargets joins selections with the catalog. Selections whose
// platform is missing from the catalog are skipped.
func resolveTargets(selections []composer.Selection) []RelayTarget {
	targets := make([]RelayTarget, 0, len(selections))
	for _, sel := range selections {
		desc, ok := catalog.ByID(sel.PlatformID)
		if !ok {
			continue
		}
		targets = append(targets, RelayTarget{
			PlatformID:    sel.PlatformID,
			PlatformLabel: desc.Label,
			Account:       sel.Account,
			PostType:      sel.PostType,
		})
	}
	return targets
}

func platformIDs(selections []composer.Selection) models.StringArray {
	ids := make(models.StringArray, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.PlatformID)
	}
	return ids
}

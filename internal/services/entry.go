package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"daylog-backend/internal/models"
	"daylog-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BlobStore stores opaque bytes under a key and returns a durable URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Notifier delivers a push notification for a freshly published entry.
type Notifier interface {
	EntryPublished(user *models.User, entry *models.Entry)
}

// UserStore is the slice of the user repository the entry service needs.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// EntryService runs the publish pipeline and the timeline projection.
//
// Submit executes a strict sequence: gate re-check, JPEG re-encode, blob
// upload, conditional metadata write. Each step can fail independently and
// nothing is retried. A metadata failure after a successful upload leaves the
// blob orphaned; that inconsistency is logged and accepted, there is no
// reconciliation.
type EntryService struct {
	entries  EntryStore
	users    UserStore
	gate     *DailyPostGate
	blobs    BlobStore
	hub      *WSHub
	notifier Notifier

	maxDimension int
	jpegQuality  int
}

// NewEntryService creates the entry service. hub and notifier may be nil.
func NewEntryService(
	entries EntryStore,
	users UserStore,
	gate *DailyPostGate,
	blobs BlobStore,
	hub *WSHub,
	notifier Notifier,
	maxDimension, jpegQuality int,
) *EntryService {
	return &EntryService{
		entries:      entries,
		users:        users,
		gate:         gate,
		blobs:        blobs,
		hub:          hub,
		notifier:     notifier,
		maxDimension: maxDimension,
		jpegQuality:  jpegQuality,
	}
}

// Submit publishes a new entry for the user. The gate is re-invoked here even
// if the client checked it earlier; a stale UI state must not slip a second
// post through. The metadata write is conditional on no entry existing for
// the current local day, so two racing submissions cannot both land.
func (s *EntryService) Submit(ctx context.Context, userID string, imageBytes []byte, caption string, loc *time.Location) (*models.Entry, error) {
	eligible, err := s.gate.CheckEligibility(ctx, userID, loc)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, ErrAlreadyPosted
	}

	encoded, err := encodeJPEG(imageBytes, s.maxDimension, s.jpegQuality)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	key := fmt.Sprintf("%s/%s.jpg", userID, uuid.New().String())
	blobURL, err := s.blobs.Put(ctx, key, encoded, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	entry := &models.Entry{
		ID:      uuid.New().String(),
		UserID:  userID,
		BlobURL: blobURL,
		Caption: strings.TrimSpace(caption),
	}
	if err := s.entries.CreateSince(ctx, entry, s.gate.DayStart(loc)); err != nil {
		if errors.Is(err, repository.ErrDuplicateDay) {
			// Lost the race to a concurrent submission. The uploaded blob
			// is orphaned, same as any metadata failure.
			log.Warn().Str("user_id", userID).Str("key", key).Msg("Orphaned blob: concurrent entry won the day")
			return nil, ErrAlreadyPosted
		}
		log.Warn().Str("user_id", userID).Str("key", key).Err(err).Msg("Orphaned blob: metadata write failed")
		return nil, fmt.Errorf("%w: %v", ErrMetadataWriteFailed, err)
	}

	s.announce(entry)

	return entry, nil
}

// Timeline returns all of the user's entries, newest first. The order is
// imposed here regardless of how the store returned them.
func (s *EntryService) Timeline(ctx context.Context, userID string) ([]*models.Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	return entries, nil
}

// announce fans the published entry out to connected devices and, when a push
// token is registered, to APNs. Both are advisory and never fail the submit.
func (s *EntryService) announce(entry *models.Entry) {
	if s.hub != nil {
		s.hub.BroadcastToUser(entry.UserID, WSEvent{
			Type:      "entry_created",
			EntryID:   entry.ID,
			BlobURL:   entry.BlobURL,
			Timestamp: entry.CreatedAt.Unix(),
		})
	}

	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		user, err := s.users.GetByID(ctx, entry.UserID)
		if err != nil {
			log.Warn().Str("user_id", entry.UserID).Err(err).Msg("Skipping push: failed to load user")
			return
		}
		s.notifier.EntryPublished(user, entry)
	}()
}

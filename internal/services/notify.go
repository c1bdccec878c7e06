package services

import (
	"fmt"

	"daylog-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsNotifier sends push notifications through Apple's push service using
// token-based (.p8) authentication.
type APNsNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNsNotifier creates a notifier from a .p8 signing key
func NewAPNsNotifier(keyPath, keyID, teamID, topic string, production bool) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: topic}, nil
}

// EntryPublished notifies the user's registered device that today's entry is
// saved. Delivery failures are logged and otherwise ignored.
func (n *APNsNotifier) EntryPublished(user *models.User, entry *models.Entry) {
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       n.topic,
		Payload: payload.NewPayload().
			AlertTitle("Entry saved").
			AlertBody("Today's photo is in your journal.").
			Custom("entry_id", entry.ID),
	}

	res, err := n.client.Push(notification)
	if err != nil {
		log.Warn().Str("user_id", user.ID).Err(err).Msg("APNs push failed")
		return
	}
	if !res.Sent() {
		log.Warn().
			Str("user_id", user.ID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("APNs push rejected")
		return
	}

	log.Debug().Str("user_id", user.ID).Str("entry_id", entry.ID).Msg("APNs push delivered")
}

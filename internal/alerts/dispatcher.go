package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/jeecoo/vibro-backend/internal/push"
	"github.com/jeecoo/vibro-backend/internal/realtime"
	"go.uber.org/zap"
)

// Group is the slice of group state the dispatcher needs.
type Group struct {
	ID   string
	Name string
}

// Member is one group member as seen by the dispatcher.
type Member struct {
	UserID      string
	Username    string
	DeviceToken string
}

// Directory resolves groups and members from the authoritative store. The
// dispatcher calls it fresh on every dispatch; membership is never cached
// here, so a member added a second ago is already notified.
type Directory interface {
	GroupsOf(ctx context.Context, userID string) ([]Group, error)
	MembersOf(ctx context.Context, groupID string) ([]Member, error)
	Username(ctx context.Context, userID string) (string, error)
}

// Emitter delivers a live event to a group room.
type Emitter interface {
	Emit(groupID, event string, payload interface{})
}

// Pusher delivers one push notification, best effort.
type Pusher interface {
	Send(ctx context.Context, notification push.Notification) error
}

// Alert is one just-detected sound to broadcast.
type Alert struct {
	UserID     string
	Label      string
	Confidence string
	SoundID    string
}

// SoundEvent is the body of the new-sound live event.
type SoundEvent struct {
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	GroupID    string `json:"groupId"`
	GroupName  string `json:"groupName"`
	Label      string `json:"label"`
	Confidence string `json:"confidence"`
}

const pushSendTimeout = 5 * time.Second

// DispatcherConfig describes the dispatcher's collaborators.
type DispatcherConfig struct {
	Directory Directory
	Emitter   Emitter
	Pusher    Pusher
	Logger    *zap.Logger
}

// Dispatcher broadcasts a detected sound to the originating user's groups:
// one live event per group, and at most one push notification per device
// token across the whole dispatch regardless of how many groups the token's
// owner shares with the origin. Live fan-out and push dispatch are
// independent failure domains; neither stops the other.
type Dispatcher struct {
	directory Directory
	emitter   Emitter
	pusher    Pusher
	logger    *zap.Logger
}

// NewDispatcher constructs an alert dispatcher.
func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	if cfg.Directory == nil {
		return nil, fmt.Errorf("alerts: directory dependency required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("alerts: emitter dependency required")
	}
	if cfg.Pusher == nil {
		return nil, fmt.Errorf("alerts: pusher dependency required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		directory: cfg.Directory,
		emitter:   cfg.Emitter,
		pusher:    cfg.Pusher,
		logger:    logger,
	}, nil
}

// Dispatch fans the alert out. Only a failure to resolve the origin user's
// groups is returned; everything downstream degrades to partial success with
// per-recipient logging.
func (d *Dispatcher) Dispatch(ctx context.Context, alert Alert) error {
	username, err := d.directory.Username(ctx, alert.UserID)
	if err != nil {
		d.logger.Warn("alert origin username lookup failed",
			zap.String("user", alert.UserID), zap.Error(err))
	}

	userGroups, err := d.directory.GroupsOf(ctx, alert.UserID)
	if err != nil {
		return fmt.Errorf("resolve groups for alert: %w", err)
	}

	for _, group := range userGroups {
		d.emitter.Emit(group.ID, realtime.EventNewSound, SoundEvent{
			UserID:     alert.UserID,
			Username:   username,
			GroupID:    group.ID,
			GroupName:  group.Name,
			Label:      alert.Label,
			Confidence: alert.Confidence,
		})
	}

	d.pushToMembers(ctx, alert, username, userGroups)
	return nil
}

// pushToMembers notifies every member of the origin's groups except the
// origin themselves, once per unique device token across all groups.
func (d *Dispatcher) pushToMembers(ctx context.Context, alert Alert, username string, userGroups []Group) {
	notified := make(map[string]struct{})

	title := "Sound detected"
	body := fmt.Sprintf("%s: %s", username, alert.Label)
	if username == "" {
		body = alert.Label
	}

	for _, group := range userGroups {
		members, err := d.directory.MembersOf(ctx, group.ID)
		if err != nil {
			d.logger.Warn("member lookup failed during alert dispatch",
				zap.String("group", group.ID), zap.Error(err))
			continue
		}

		for _, member := range members {
			if member.UserID == alert.UserID || member.DeviceToken == "" {
				continue
			}
			if _, seen := notified[member.DeviceToken]; seen {
				continue
			}
			notified[member.DeviceToken] = struct{}{}

			sendCtx, cancel := context.WithTimeout(ctx, pushSendTimeout)
			err := d.pusher.Send(sendCtx, push.Notification{
				DeviceToken: member.DeviceToken,
				Title:       title,
				Body:        body,
				Data: map[string]interface{}{
					"soundId":    alert.SoundID,
					"userId":     alert.UserID,
					"groupId":    group.ID,
					"label":      alert.Label,
					"confidence": alert.Confidence,
				},
			})
			cancel()
			if err != nil {
				d.logger.Warn("push notification failed",
					zap.String("member", member.UserID),
					zap.String("group", group.ID),
					zap.Error(err))
			}
		}
	}
}

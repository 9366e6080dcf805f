package server

import (
	"context"

	"github.com/jeecoo/vibro-backend/internal/alerts"
	"github.com/jeecoo/vibro-backend/internal/groups"
	"github.com/jeecoo/vibro-backend/internal/messages"
	"github.com/jeecoo/vibro-backend/internal/users"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// messageDirectory adapts the group and user services to the message
// service's lookup needs.
type messageDirectory struct {
	groups *groups.Service
	users  *users.Service
}

// NewMessageDirectory returns the directory the message service reads
// membership and usernames through.
func NewMessageDirectory(groupService *groups.Service, userService *users.Service) messages.Directory {
	return &messageDirectory{groups: groupService, users: userService}
}

func (d *messageDirectory) IsMember(ctx context.Context, groupID, userID bson.ObjectID) (bool, error) {
	return d.groups.IsMember(ctx, groupID, userID)
}

func (d *messageDirectory) Username(ctx context.Context, userID bson.ObjectID) (string, error) {
	user, err := d.users.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// alertDirectory adapts the same services to the alert dispatcher, which
// works in opaque string ids because it sits next to the transport layer.
type alertDirectory struct {
	groups *groups.Service
	users  *users.Service
}

// NewAlertDirectory returns the directory the alert dispatcher resolves
// groups and members through. Every call reads the store fresh.
func NewAlertDirectory(groupService *groups.Service, userService *users.Service) alerts.Directory {
	return &alertDirectory{groups: groupService, users: userService}
}

func (d *alertDirectory) GroupsOf(ctx context.Context, userID string) ([]alerts.Group, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}
	found, err := d.groups.GroupsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	result := make([]alerts.Group, 0, len(found))
	for _, group := range found {
		result = append(result, alerts.Group{ID: group.ID.Hex(), Name: group.GroupName})
	}
	return result, nil
}

func (d *alertDirectory) MembersOf(ctx context.Context, groupID string) ([]alerts.Member, error) {
	id, err := bson.ObjectIDFromHex(groupID)
	if err != nil {
		return nil, err
	}
	memberIDs, err := d.groups.MemberIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	accounts, err := d.users.GetMany(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	result := make([]alerts.Member, 0, len(accounts))
	for _, account := range accounts {
		result = append(result, alerts.Member{
			UserID:      account.ID.Hex(),
			Username:    account.Username,
			DeviceToken: account.DeviceToken,
		})
	}
	return result, nil
}

func (d *alertDirectory) Username(ctx context.Context, userID string) (string, error) {
	id, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return "", err
	}
	user, err := d.users.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

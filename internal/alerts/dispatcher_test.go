package alerts

import (
	"context"
	"errors"
	"testing"

	"github.com/jeecoo/vibro-backend/internal/push"
	"github.com/jeecoo/vibro-backend/internal/realtime"
)

type fakeDirectory struct {
	groups      []Group
	groupsErr   error
	members     map[string][]Member
	membersErr  map[string]error
	usernames   map[string]string
	usernameErr error
}

func (d *fakeDirectory) GroupsOf(ctx context.Context, userID string) ([]Group, error) {
	return d.groups, d.groupsErr
}

func (d *fakeDirectory) MembersOf(ctx context.Context, groupID string) ([]Member, error) {
	if err := d.membersErr[groupID]; err != nil {
		return nil, err
	}
	return d.members[groupID], nil
}

func (d *fakeDirectory) Username(ctx context.Context, userID string) (string, error) {
	if d.usernameErr != nil {
		return "", d.usernameErr
	}
	return d.usernames[userID], nil
}

type emittedEvent struct {
	groupID string
	event   string
	payload interface{}
}

type fakeEmitter struct {
	emitted []emittedEvent
}

func (e *fakeEmitter) Emit(groupID, event string, payload interface{}) {
	e.emitted = append(e.emitted, emittedEvent{groupID: groupID, event: event, payload: payload})
}

type fakePusher struct {
	sent     []push.Notification
	failFor  map[string]error
	sendErrs int
}

func (p *fakePusher) Send(ctx context.Context, notification push.Notification) error {
	if err := p.failFor[notification.DeviceToken]; err != nil {
		p.sendErrs++
		return err
	}
	p.sent = append(p.sent, notification)
	return nil
}

func newTestDispatcher(t *testing.T, directory Directory, emitter Emitter, pusher Pusher) *Dispatcher {
	t.Helper()
	dispatcher, err := NewDispatcher(DispatcherConfig{
		Directory: directory,
		Emitter:   emitter,
		Pusher:    pusher,
	})
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	return dispatcher
}

func TestNewDispatcherRequiresCollaborators(t *testing.T) {
	directory := &fakeDirectory{}
	emitter := &fakeEmitter{}
	pusher := &fakePusher{}

	if _, err := NewDispatcher(DispatcherConfig{Emitter: emitter, Pusher: pusher}); err == nil {
		t.Fatalf("expected error without directory")
	}
	if _, err := NewDispatcher(DispatcherConfig{Directory: directory, Pusher: pusher}); err == nil {
		t.Fatalf("expected error without emitter")
	}
	if _, err := NewDispatcher(DispatcherConfig{Directory: directory, Emitter: emitter}); err == nil {
		t.Fatalf("expected error without pusher")
	}
}

func TestDispatchEmitsToEveryGroup(t *testing.T) {
	directory := &fakeDirectory{
		groups:    []Group{{ID: "g1", Name: "Kitchen"}, {ID: "g2", Name: "Garage"}},
		usernames: map[string]string{"alice": "alice"},
	}
	emitter := &fakeEmitter{}
	dispatcher := newTestDispatcher(t, directory, emitter, &fakePusher{})

	err := dispatcher.Dispatch(context.Background(), Alert{
		UserID: "alice", Label: "glass breaking", Confidence: "0.92", SoundID: "s1",
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if len(emitter.emitted) != 2 {
		t.Fatalf("expected 2 live events, got %d", len(emitter.emitted))
	}
	first, ok := emitter.emitted[0].payload.(SoundEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", emitter.emitted[0].payload)
	}
	if emitter.emitted[0].event != realtime.EventNewSound {
		t.Fatalf("unexpected event name %q", emitter.emitted[0].event)
	}
	if first.Username != "alice" || first.GroupName != "Kitchen" || first.Label != "glass breaking" {
		t.Fatalf("unexpected event body: %+v", first)
	}
}

func TestDispatchReturnsErrorWhenGroupsUnresolvable(t *testing.T) {
	directory := &fakeDirectory{groupsErr: errors.New("store down")}
	dispatcher := newTestDispatcher(t, directory, &fakeEmitter{}, &fakePusher{})

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice"}); err == nil {
		t.Fatalf("expected error when group resolution fails")
	}
}

func TestDispatchPushesOncePerDeviceToken(t *testing.T) {
	// bob shares both groups with alice; his token must be notified once.
	directory := &fakeDirectory{
		groups: []Group{{ID: "g1"}, {ID: "g2"}},
		members: map[string][]Member{
			"g1": {
				{UserID: "alice", DeviceToken: "token-alice"},
				{UserID: "bob", DeviceToken: "token-bob"},
			},
			"g2": {
				{UserID: "alice", DeviceToken: "token-alice"},
				{UserID: "bob", DeviceToken: "token-bob"},
				{UserID: "carol", DeviceToken: "token-carol"},
			},
		},
		usernames: map[string]string{"alice": "alice"},
	}
	pusher := &fakePusher{}
	dispatcher := newTestDispatcher(t, directory, &fakeEmitter{}, pusher)

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice", Label: "doorbell"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if len(pusher.sent) != 2 {
		t.Fatalf("expected 2 notifications (bob, carol), got %d", len(pusher.sent))
	}
	seen := make(map[string]int)
	for _, notification := range pusher.sent {
		seen[notification.DeviceToken]++
		if notification.DeviceToken == "token-alice" {
			t.Fatalf("origin user must never be notified")
		}
	}
	if seen["token-bob"] != 1 || seen["token-carol"] != 1 {
		t.Fatalf("unexpected per-token counts: %v", seen)
	}
}

func TestDispatchSkipsMembersWithoutDeviceToken(t *testing.T) {
	directory := &fakeDirectory{
		groups: []Group{{ID: "g1"}},
		members: map[string][]Member{
			"g1": {
				{UserID: "bob"},
				{UserID: "carol", DeviceToken: "token-carol"},
			},
		},
	}
	pusher := &fakePusher{}
	dispatcher := newTestDispatcher(t, directory, &fakeEmitter{}, pusher)

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(pusher.sent) != 1 || pusher.sent[0].DeviceToken != "token-carol" {
		t.Fatalf("expected only carol's token notified, got %+v", pusher.sent)
	}
}

func TestDispatchPushFailureDoesNotStopSiblings(t *testing.T) {
	directory := &fakeDirectory{
		groups: []Group{{ID: "g1"}},
		members: map[string][]Member{
			"g1": {
				{UserID: "bob", DeviceToken: "token-bob"},
				{UserID: "carol", DeviceToken: "token-carol"},
			},
		},
	}
	pusher := &fakePusher{failFor: map[string]error{"token-bob": errors.New("expo rejected")}}
	emitter := &fakeEmitter{}
	dispatcher := newTestDispatcher(t, directory, emitter, pusher)

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice"}); err != nil {
		t.Fatalf("push failures must not surface as dispatch errors: %v", err)
	}
	if len(pusher.sent) != 1 || pusher.sent[0].DeviceToken != "token-carol" {
		t.Fatalf("carol should still be notified after bob's failure, got %+v", pusher.sent)
	}
	if len(emitter.emitted) != 1 {
		t.Fatalf("live emit should be unaffected by push failures, got %d events", len(emitter.emitted))
	}
}

func TestDispatchMemberLookupFailureSkipsThatGroupOnly(t *testing.T) {
	directory := &fakeDirectory{
		groups: []Group{{ID: "g-broken"}, {ID: "g-ok"}},
		members: map[string][]Member{
			"g-ok": {{UserID: "bob", DeviceToken: "token-bob"}},
		},
		membersErr: map[string]error{"g-broken": errors.New("store down")},
	}
	pusher := &fakePusher{}
	dispatcher := newTestDispatcher(t, directory, &fakeEmitter{}, pusher)

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice"}); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(pusher.sent) != 1 || pusher.sent[0].DeviceToken != "token-bob" {
		t.Fatalf("healthy group should still be pushed, got %+v", pusher.sent)
	}
}

func TestDispatchUsernameLookupFailureDegradesBody(t *testing.T) {
	directory := &fakeDirectory{
		groups:      []Group{{ID: "g1"}},
		members:     map[string][]Member{"g1": {{UserID: "bob", DeviceToken: "token-bob"}}},
		usernameErr: errors.New("user gone"),
	}
	pusher := &fakePusher{}
	dispatcher := newTestDispatcher(t, directory, &fakeEmitter{}, pusher)

	if err := dispatcher.Dispatch(context.Background(), Alert{UserID: "alice", Label: "siren"}); err != nil {
		t.Fatalf("username failure must not fail dispatch: %v", err)
	}
	if len(pusher.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(pusher.sent))
	}
	if pusher.sent[0].Body != "siren" {
		t.Fatalf("expected bare label body without username, got %q", pusher.sent[0].Body)
	}
}

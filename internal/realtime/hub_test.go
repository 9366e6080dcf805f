package realtime

import "testing"

// connectObserver opens a watching connection in the group so presence
// transitions for other users have a visible recipient.
func connectObserver(t *testing.T, hub *Hub, groupID string) *fakeSender {
	t.Helper()
	observer := &fakeSender{}
	hub.Connect("observer", []string{groupID}, observer)
	return observer
}

func presenceCount(t *testing.T, sender *fakeSender, event, userID string) int {
	t.Helper()
	sender.mu.Lock()
	defer sender.mu.Unlock()
	total := 0
	for _, recorded := range sender.events {
		payload, ok := recorded.payload.(PresencePayload)
		if recorded.event == event && ok && payload.UserID == userID {
			total++
		}
	}
	return total
}

func TestHubFirstConnectionAnnouncesOnline(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	hub.Connect("alice", []string{"group-a"}, &fakeSender{})

	if got := presenceCount(t, observer, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("expected 1 user-online for alice, got %d", got)
	}
	if !hub.OnlineInGroup("alice", "group-a") {
		t.Fatalf("expected alice online in group-a")
	}
}

func TestHubSecondConnectionDoesNotReannounce(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	hub.Connect("alice", []string{"group-a"}, &fakeSender{})

	if got := presenceCount(t, observer, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("second connection must not re-announce, got %d online events", got)
	}
}

func TestHubOfflineOnlyAfterLastConnection(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	first := hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	second := hub.Connect("alice", []string{"group-a"}, &fakeSender{})

	hub.Disconnect("alice", first)
	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 0 {
		t.Fatalf("offline must wait for the last connection, got %d events", got)
	}
	if !hub.OnlineInGroup("alice", "group-a") {
		t.Fatalf("alice should still be online through the second connection")
	}

	hub.Disconnect("alice", second)
	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 1 {
		t.Fatalf("expected 1 user-offline after last disconnect, got %d", got)
	}
	if hub.OnlineInGroup("alice", "group-a") {
		t.Fatalf("alice should be offline after last disconnect")
	}
}

func TestHubPresenceIsPerGroup(t *testing.T) {
	hub := NewHub(nil)
	observerA := connectObserver(t, hub, "group-a")
	observerB := &fakeSender{}
	hub.Connect("observer-b", []string{"group-b"}, observerB)

	connID := hub.Connect("alice", []string{"group-a", "group-b"}, &fakeSender{})

	if got := presenceCount(t, observerA, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("expected online in group-a, got %d", got)
	}
	if got := presenceCount(t, observerB, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("expected online in group-b, got %d", got)
	}

	hub.Disconnect("alice", connID)

	if got := presenceCount(t, observerA, EventUserOffline, "alice"); got != 1 {
		t.Fatalf("expected offline in group-a, got %d", got)
	}
	if got := presenceCount(t, observerB, EventUserOffline, "alice"); got != 1 {
		t.Fatalf("expected offline in group-b, got %d", got)
	}
}

func TestHubHeartbeatRebroadcastsWithoutTransition(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	connID := hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	hub.Heartbeat("alice", connID)
	hub.Heartbeat("alice", connID)

	if got := presenceCount(t, observer, EventUserOnline, "alice"); got != 3 {
		t.Fatalf("expected connect plus 2 heartbeat announcements, got %d", got)
	}
	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 0 {
		t.Fatalf("heartbeat must never announce offline, got %d", got)
	}
	if !hub.OnlineInGroup("alice", "group-a") {
		t.Fatalf("heartbeat must not change subscription state")
	}
}

func TestHubJoinAndLeaveGroup(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-b")

	connID := hub.Connect("alice", []string{"group-a"}, &fakeSender{})

	hub.JoinGroup("alice", connID, "group-b")
	if got := presenceCount(t, observer, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("expected online announcement on first join, got %d", got)
	}
	if !hub.OnlineInGroup("alice", "group-b") {
		t.Fatalf("expected alice online in group-b after join")
	}

	hub.LeaveGroup("alice", connID, "group-b")
	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 1 {
		t.Fatalf("expected offline announcement on leave, got %d", got)
	}
	if hub.OnlineInGroup("alice", "group-b") {
		t.Fatalf("expected alice offline in group-b after leave")
	}
	if !hub.OnlineInGroup("alice", "group-a") {
		t.Fatalf("leaving group-b must not affect group-a")
	}
}

func TestHubLeaveNeverJoinedGroupStaysQuiet(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-x")

	connID := hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	hub.LeaveGroup("alice", connID, "group-x")

	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 0 {
		t.Fatalf("leaving a never-joined group must not announce offline, got %d events", got)
	}
}

func TestHubDoubleLeaveAnnouncesOfflineOnce(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	connID := hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	hub.LeaveGroup("alice", connID, "group-a")
	hub.LeaveGroup("alice", connID, "group-a")

	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 1 {
		t.Fatalf("expected exactly 1 user-offline after repeated leaves, got %d", got)
	}
}

func TestHubJoinSecondConnectionStaysQuiet(t *testing.T) {
	hub := NewHub(nil)
	observer := connectObserver(t, hub, "group-a")

	hub.Connect("alice", []string{"group-a"}, &fakeSender{})
	second := hub.Connect("alice", nil, &fakeSender{})
	hub.JoinGroup("alice", second, "group-a")

	if got := presenceCount(t, observer, EventUserOnline, "alice"); got != 1 {
		t.Fatalf("join through a second connection must not re-announce, got %d", got)
	}

	hub.LeaveGroup("alice", second, "group-a")
	if got := presenceCount(t, observer, EventUserOffline, "alice"); got != 0 {
		t.Fatalf("leaving with another connection still subscribed must stay quiet, got %d", got)
	}
}

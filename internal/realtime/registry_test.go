package realtime

import "testing"

func TestRegistryAddAndRemoveConnection(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection("user-a", "conn-1")
	registry.AddConnection("user-a", "conn-2")

	if !registry.HasConnections("user-a") {
		t.Fatalf("expected user-a to have live connections")
	}
	if got := len(registry.ConnectionsOf("user-a")); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	registry.RemoveConnection("user-a", "conn-1")
	if got := len(registry.ConnectionsOf("user-a")); got != 1 {
		t.Fatalf("expected 1 connection after removal, got %d", got)
	}

	registry.RemoveConnection("user-a", "conn-2")
	if registry.HasConnections("user-a") {
		t.Fatalf("expected user entry gone after last connection closed")
	}
}

func TestRegistryOperationsAreIdempotent(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection("user-a", "conn-1")
	registry.AddConnection("user-a", "conn-1")
	if got := len(registry.ConnectionsOf("user-a")); got != 1 {
		t.Fatalf("duplicate add should be a no-op, got %d connections", got)
	}

	registry.RemoveConnection("user-a", "conn-missing")
	if !registry.HasConnections("user-a") {
		t.Fatalf("removing an absent connection must not disturb the user entry")
	}

	registry.RemoveConnection("unknown-user", "conn-1")
}

func TestRegistryIgnoresEmptyIdentifiers(t *testing.T) {
	registry := NewRegistry()

	registry.AddConnection("", "conn-1")
	registry.AddConnection("user-a", "")

	if registry.HasConnections("") || registry.HasConnections("user-a") {
		t.Fatalf("empty identifiers must not create entries")
	}
}

func TestRegistryConnectionsOfUnknownUser(t *testing.T) {
	registry := NewRegistry()

	ids := registry.ConnectionsOf("nobody")
	if ids == nil {
		t.Fatalf("expected empty slice, got nil")
	}
	if len(ids) != 0 {
		t.Fatalf("expected no connections, got %d", len(ids))
	}
}

package core

import (
	"context"
	"strings"
	"testing"
)

func TestUsernamesFollowRegistrationOrder(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	b := hub.Register("b")
	c := hub.Register("c")

	hub.BindName(a, "alice")
	hub.BindName(b, "bob")

	got := hub.Usernames()
	want := []string{"alice", "bob"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Usernames() = %v, want %v", got, want)
	}

	hub.BindName(c, "carol")
	hub.Unregister(a)

	got = hub.Usernames()
	if len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
		t.Fatalf("Usernames() after unregister = %v", got)
	}
}

func TestUnregisteredSessionNeverListed(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	hub.BindName(a, "alice")
	hub.Unregister(a)
	hub.Unregister(a) // idempotent

	for _, name := range hub.Usernames() {
		if name == "alice" {
			t.Fatalf("unregistered session still listed: %v", hub.Usernames())
		}
	}
	if hub.FindByName("alice") != nil {
		t.Fatal("unregistered session still resolvable")
	}
}

func TestFindByNameCaseInsensitive(t *testing.T) {
	hub := newTestHub()

	b := hub.Register("b")
	hub.BindName(b, "Bob")

	if got := hub.FindByName("bob"); got != b {
		t.Fatalf("FindByName(\"bob\") = %v, want the Bob session", got)
	}
	if got := hub.FindByName("BOB"); got != b {
		t.Fatalf("FindByName(\"BOB\") = %v, want the Bob session", got)
	}
	if got := hub.FindByName("alice"); got != nil {
		t.Fatalf("FindByName(\"alice\") = %v, want nil", got)
	}
}

func TestFindByNameDuplicatesFirstMatchWins(t *testing.T) {
	hub := newTestHub()

	first := hub.Register("1")
	second := hub.Register("2")
	hub.BindName(first, "bob")
	hub.BindName(second, "Bob")

	if got := hub.FindByName("bob"); got != first {
		t.Fatalf("duplicate name lookup returned the later registration")
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	b := hub.Register("b")
	c := hub.Register("c")

	hub.Broadcast("hello", a)

	if got := mustLine(t, b); got != "hello" {
		t.Fatalf("b received %q", got)
	}
	if got := mustLine(t, c); got != "hello" {
		t.Fatalf("c received %q", got)
	}
	mustNoLine(t, a)
}

func TestBroadcastWithoutExclusionReachesEveryone(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	b := hub.Register("b")

	hub.Broadcast("announcement", nil)

	if got := mustLine(t, a); got != "announcement" {
		t.Fatalf("a received %q", got)
	}
	if got := mustLine(t, b); got != "announcement" {
		t.Fatalf("b received %q", got)
	}
}

func TestJoinAndLeaveNotices(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	hub.BindName(a, "alice")

	b := hub.Register("b")
	hub.BindName(b, "bob")

	if got := mustLine(t, a); got != "[bob] has joined the chat." {
		t.Fatalf("join notice = %q", got)
	}
	mustNoLine(t, b)

	hub.Unregister(b)
	if got := mustLine(t, a); got != "[bob] has left the chat." {
		t.Fatalf("leave notice = %q", got)
	}
}

func TestChatLineRelayedWithAuthorPrefix(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	a := hub.Register("a")
	b := hub.Register("b")
	hub.BindName(a, "alice")
	hub.BindName(b, "bob")
	mustLine(t, a) // bob's join notice

	if !hub.HandleLine(ctx, a, "hi everyone") {
		t.Fatal("chat line reported quit")
	}

	if got := mustLine(t, b); got != "[alice] hi everyone" {
		t.Fatalf("relayed chat = %q", got)
	}
	mustNoLine(t, a)
}

func TestWhoRepliesOnlyToRequester(t *testing.T) {
	hub := newTestHub()
	ctx := context.Background()

	a := hub.Register("a")
	b := hub.Register("b")
	hub.BindName(a, "alice")
	hub.BindName(b, "bob")
	mustLine(t, a) // bob's join notice

	hub.HandleLine(ctx, a, "/who")

	got := mustLine(t, a)
	if !strings.HasPrefix(got, "[Online users: ") || !strings.Contains(got, "alice, bob") {
		t.Fatalf("who reply = %q", got)
	}
	mustNoLine(t, b)
}

func TestQuitStopsRouting(t *testing.T) {
	hub := newTestHub()

	a := hub.Register("a")
	hub.BindName(a, "alice")

	if hub.HandleLine(context.Background(), a, "/quit") {
		t.Fatal("quit line did not request loop stop")
	}
}

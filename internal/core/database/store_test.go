package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/markdave123-py/mindease/internal/models"
)

func newTestStore(t *testing.T) *DatabaseClient {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mindease.db")
	c, err := Open(context.Background(), "sqlite://"+path, "")
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestOpen_BootstrapIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mindease.db")
	ctx := context.Background()

	first, err := Open(ctx, "sqlite://"+path, "")
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := first.UpsertPreference(ctx, "u1", "mentor"); err != nil {
		t.Fatalf("UpsertPreference() failed: %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, "sqlite://"+path, "")
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer second.Close()

	pref, err := second.GetPreference(ctx, "u1")
	if err != nil || pref == nil || pref.Tone != "mentor" {
		t.Fatalf("GetPreference() after reopen = %+v, %v", pref, err)
	}
	if second.Dialect() != "sqlite" {
		t.Errorf("Dialect() = %s, want sqlite", second.Dialect())
	}
}

func TestResolveDSN(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
		dialect string
	}{
		{"postgres://u:p@localhost:5432/app", false, "postgres"},
		{"postgresql://u:p@localhost/app", false, "postgres"},
		{"sqlite://" + filepath.Join(t.TempDir(), "x.db"), false, "sqlite"},
		{"sqlite://", true, ""},
		{"mysql://localhost/app", true, ""},
		{"", true, ""},
	}
	for _, tt := range tests {
		d, _, err := resolveDSN(tt.url, "")
		if (err != nil) != tt.wantErr {
			t.Errorf("resolveDSN(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if d.name != tt.dialect {
			t.Errorf("resolveDSN(%q) dialect = %q, want %q", tt.url, d.name, tt.dialect)
		}
	}

	if _, _, err := resolveDSN("postgres://localhost/app", "/does/not/exist.pem"); err == nil {
		t.Error("resolveDSN() accepted a missing cert")
	}
}

func TestPreferenceUpsert(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()

	if p, err := c.GetPreference(ctx, "u1"); err != nil || p != nil {
		t.Fatalf("GetPreference() on empty store = %+v, %v", p, err)
	}
	if err := c.UpsertPreference(ctx, "u1", "friend"); err != nil {
		t.Fatal(err)
	}
	if err := c.UpsertPreference(ctx, "u1", "supporter"); err != nil {
		t.Fatal(err)
	}
	p, err := c.GetPreference(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Tone != "supporter" {
		t.Errorf("Tone = %s, want supporter", p.Tone)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()

	in := &models.Profile{
		ID:          "u1",
		DisplayName: "Sam",
		Email:       "sam@example.com",
		EmergencyContact: models.EmergencyContact{
			Name: "Alex", Phone: "+15550001111", Relationship: "sibling",
		},
	}
	if err := c.UpsertProfile(ctx, in); err != nil {
		t.Fatalf("UpsertProfile() failed: %v", err)
	}
	got, err := c.GetProfile(ctx, "u1")
	if err != nil || got == nil {
		t.Fatalf("GetProfile() = %+v, %v", got, err)
	}
	if got.EmergencyContact != in.EmergencyContact || got.Email != in.Email {
		t.Errorf("GetProfile() = %+v, want %+v", got, in)
	}
	if missing, err := c.GetProfile(ctx, "nobody"); err != nil || missing != nil {
		t.Errorf("GetProfile(missing) = %+v, %v", missing, err)
	}
}

func TestChatMessages(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		user := &models.ChatMessage{
			ID: fmt.Sprintf("m%d", i), UserID: "u1", Role: models.RoleUser,
			Content: fmt.Sprintf("hello %d", i), Timestamp: base.Add(time.Duration(2*i) * time.Minute),
		}
		if i == 4 {
			user.CrisisFlag = true
			user.DistressAnalysis = &models.DistressAnalysis{RiskLevel: models.RiskSevere, Reason: "stated intent"}
		}
		reply := &models.ChatMessage{
			ID: fmt.Sprintf("r%d", i), UserID: "u1", Role: models.RoleAssistant, ReplyTo: user.ID,
			Content: "hi", Timestamp: user.Timestamp.Add(time.Second),
		}
		if err := c.InsertChatMessages(ctx, user, reply); err != nil {
			t.Fatalf("InsertChatMessages() failed: %v", err)
		}
	}
	other := &models.ChatMessage{ID: "x", UserID: "u2", Role: models.RoleUser, Content: "other", Timestamp: base}
	if err := c.InsertChatMessages(ctx, other); err != nil {
		t.Fatal(err)
	}

	recent, err := c.ListRecentMessages(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("ListRecentMessages() failed: %v", err)
	}
	wantIDs := []string{"m3", "r3", "m4", "r4"}
	if len(recent) != len(wantIDs) {
		t.Fatalf("got %d messages, want %d", len(recent), len(wantIDs))
	}
	for i, id := range wantIDs {
		if recent[i].ID != id {
			t.Errorf("recent[%d] = %s, want %s", i, recent[i].ID, id)
		}
	}
	last := recent[2]
	if !last.CrisisFlag || last.DistressAnalysis == nil || last.DistressAnalysis.RiskLevel != models.RiskSevere {
		t.Errorf("crisis fields not round-tripped: %+v", last)
	}
	if recent[0].DistressAnalysis != nil {
		t.Errorf("unclassified message has analysis: %+v", recent[0].DistressAnalysis)
	}

	reply, err := c.GetReply(ctx, "u1", "m2")
	if err != nil || reply == nil || reply.ID != "r2" {
		t.Errorf("GetReply() = %+v, %v", reply, err)
	}
	if r, err := c.GetReply(ctx, "u2", "m2"); err != nil || r != nil {
		t.Errorf("GetReply() across users = %+v, %v", r, err)
	}
	if m, err := c.GetChatMessage(ctx, "u1", "m1"); err != nil || m == nil || m.Content != "hello 1" {
		t.Errorf("GetChatMessage() = %+v, %v", m, err)
	}
}

func TestInsertChatMessages_IsAtomic(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	first := &models.ChatMessage{ID: "dup", UserID: "u1", Role: models.RoleUser, Content: "a", Timestamp: now}
	if err := c.InsertChatMessages(ctx, first); err != nil {
		t.Fatal(err)
	}

	fresh := &models.ChatMessage{ID: "fresh", UserID: "u1", Role: models.RoleUser, Content: "b", Timestamp: now}
	dup := &models.ChatMessage{ID: "dup", UserID: "u1", Role: models.RoleAssistant, Content: "c", Timestamp: now}
	if err := c.InsertChatMessages(ctx, fresh, dup); err == nil {
		t.Fatal("InsertChatMessages() with duplicate id succeeded")
	}
	if m, _ := c.GetChatMessage(ctx, "u1", "fresh"); m != nil {
		t.Error("partial insert was committed")
	}
}

func TestClaimEscalation(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()

	ok, err := c.ClaimEscalation(ctx, &models.EscalationEvent{ID: "m1", UserID: "u1", Reason: "r"})
	if err != nil || !ok {
		t.Fatalf("first ClaimEscalation() = %v, %v", ok, err)
	}
	ok, err = c.ClaimEscalation(ctx, &models.EscalationEvent{ID: "m1", UserID: "u1", Reason: "r"})
	if err != nil || ok {
		t.Fatalf("second ClaimEscalation() = %v, %v; want false", ok, err)
	}
}

func TestMessageIDsAreScopedPerUser(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	for _, uid := range []string{"alice", "bob"} {
		ok, err := c.ClaimEscalation(ctx, &models.EscalationEvent{ID: "1", UserID: uid, Reason: "r"})
		if err != nil || !ok {
			t.Fatalf("ClaimEscalation(%s) = %v, %v; want true", uid, ok, err)
		}
		msg := &models.ChatMessage{ID: "1", UserID: uid, Role: models.RoleUser, Content: "hi " + uid, Timestamp: now}
		if err := c.InsertChatMessages(ctx, msg); err != nil {
			t.Fatalf("InsertChatMessages(%s) = %v", uid, err)
		}
	}

	m, err := c.GetChatMessage(ctx, "bob", "1")
	if err != nil || m == nil || m.Content != "hi bob" {
		t.Fatalf("GetChatMessage(bob) = %+v, %v", m, err)
	}
	if _, err := c.ClaimEscalation(ctx, &models.EscalationEvent{ID: "1"}); err == nil {
		t.Error("ClaimEscalation() without a user succeeded")
	}
}

func TestNotificationLifecycle(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	due := &models.ScheduledNotification{ID: "due", UserID: "u1", ScheduledFor: now.Add(-time.Minute), Message: "m"}
	later := &models.ScheduledNotification{ID: "later", UserID: "u1", ScheduledFor: now.Add(time.Hour), Message: "m"}
	for _, n := range []*models.ScheduledNotification{due, later} {
		if err := c.CreateNotification(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	list, err := c.ListDueNotifications(ctx, now, 5, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "due" {
		t.Fatalf("ListDueNotifications() = %+v, want only due", list)
	}

	ok, err := c.ClaimNotification(ctx, "due", "tok-a", now, now.Add(5*time.Minute))
	if err != nil || !ok {
		t.Fatalf("ClaimNotification(a) = %v, %v", ok, err)
	}
	if ok, _ := c.ClaimNotification(ctx, "due", "tok-b", now, now.Add(5*time.Minute)); ok {
		t.Fatal("second runner claimed a leased record")
	}
	if list, _ := c.ListDueNotifications(ctx, now, 5, 50); len(list) != 0 {
		t.Fatalf("claimed record still listed: %+v", list)
	}

	if ok, _ := c.MarkNotificationSent(ctx, "due", "tok-b", now); ok {
		t.Fatal("non-holder marked the record sent")
	}
	ok, err = c.MarkNotificationSent(ctx, "due", "tok-a", now)
	if err != nil || !ok {
		t.Fatalf("MarkNotificationSent() = %v, %v", ok, err)
	}

	got, err := c.GetNotification(ctx, "due")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Sent || got.SentAt == nil {
		t.Errorf("record not marked sent: %+v", got)
	}

	// an expired lease on a sent record never makes it eligible again
	if ok, _ := c.ClaimNotification(ctx, "due", "tok-c", now.Add(time.Hour), now.Add(2*time.Hour)); ok {
		t.Error("sent record was claimed again")
	}
}

func TestNotificationReleaseAndMaxAttempts(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if err := c.CreateNotification(ctx, &models.ScheduledNotification{ID: "n", UserID: "u1", ScheduledFor: now, Message: "m"}); err != nil {
		t.Fatal(err)
	}

	for attempt := 1; attempt <= 2; attempt++ {
		tok := fmt.Sprintf("tok-%d", attempt)
		if ok, err := c.ClaimNotification(ctx, "n", tok, now, now.Add(time.Minute)); err != nil || !ok {
			t.Fatalf("claim %d = %v, %v", attempt, ok, err)
		}
		if err := c.ReleaseNotification(ctx, "n", tok, "twilio 500"); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := c.GetNotification(ctx, "n")
	if got.Sent || got.Attempts != 2 || got.LastError != "twilio 500" {
		t.Errorf("after failures = %+v", got)
	}
	if list, _ := c.ListDueNotifications(ctx, now, 3, 50); len(list) != 1 {
		t.Errorf("record under max attempts not listed")
	}
	if list, _ := c.ListDueNotifications(ctx, now, 2, 50); len(list) != 0 {
		t.Errorf("record at max attempts still listed")
	}
}

func TestExpiredClaimIsReclaimable(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if err := c.CreateNotification(ctx, &models.ScheduledNotification{ID: "n", UserID: "u1", ScheduledFor: now, Message: "m"}); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.ClaimNotification(ctx, "n", "crashed", now, now.Add(time.Minute)); !ok {
		t.Fatal("initial claim failed")
	}
	later := now.Add(2 * time.Minute)
	if ok, _ := c.ClaimNotification(ctx, "n", "next", later, later.Add(time.Minute)); !ok {
		t.Error("expired claim could not be taken over")
	}
}

func TestJournalAndMood(t *testing.T) {
	c := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		e := &models.JournalEntry{
			ID: fmt.Sprintf("j%d", i), UserID: "u1", Content: "sealed", MoodRating: i + 1,
			Emotions: []string{"hope", "joy"}, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := c.CreateJournalEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
		m := &models.MoodLog{ID: fmt.Sprintf("m%d", i), UserID: "u1", MoodRating: i + 3, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		if err := c.CreateMoodLog(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := c.ListJournalEntries(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != "j2" || len(entries[0].Emotions) != 2 {
		t.Errorf("ListJournalEntries() = %+v", entries)
	}

	logs, err := c.ListMoodLogs(ctx, "u1", 30)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 3 || logs[0].MoodRating != 5 {
		t.Errorf("ListMoodLogs() = %+v", logs)
	}
}

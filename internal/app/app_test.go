package app

import (
	"errors"
	"testing"
	"time"

	"librarybot/pkg/store"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*App, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	engine, err := New(Config{
		Store:  mem,
		Admins: []int64{1000},
		Now:    func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return engine, mem
}

func submitTestBook(t *testing.T, engine *App, title, author string, submitterID int64) string {
	t.Helper()
	sub, err := engine.Submit(SubmitRequest{
		Title:             title,
		Author:            author,
		SubmitterID:       submitterID,
		SubmitterUsername: "reader",
		SubmitterName:     "Reader",
	})
	if err != nil {
		t.Fatalf("submit %q: %v", title, err)
	}
	return sub.ID
}

func TestSubmitCreatesPendingWithUniqueIDs(t *testing.T) {
	engine, _ := newTestApp(t)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		sub, err := engine.Submit(SubmitRequest{Title: "Dune", Author: "Frank Herbert", SubmitterID: 1})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if sub.Approved {
			t.Fatalf("new submission should not be approved")
		}
		if sub.ApprovedAt != nil || sub.ApprovedBy != "" {
			t.Fatalf("unapproved submission carries approval fields: %+v", sub)
		}
		if seen[sub.ID] {
			t.Fatalf("duplicate submission ID %q", sub.ID)
		}
		seen[sub.ID] = true
	}
}

func TestSubmitRejectsEmptyFields(t *testing.T) {
	engine, _ := newTestApp(t)
	if _, err := engine.Submit(SubmitRequest{Title: "   ", Author: "Someone", SubmitterID: 1}); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("err = %v, want ErrEmptyField", err)
	}
	if _, err := engine.Submit(SubmitRequest{Title: "Title", Author: "", SubmitterID: 1}); !errors.Is(err, ErrEmptyField) {
		t.Fatalf("err = %v, want ErrEmptyField", err)
	}
}

func TestSubmitNormalizesDriveLink(t *testing.T) {
	engine, _ := newTestApp(t)
	sub, err := engine.Submit(SubmitRequest{
		Title:       "Dune",
		Author:      "Frank Herbert",
		SubmitterID: 1,
		DriveLink:   "https://drive.google.com/file/d/ABC123/view?usp=drive_link",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	want := "https://drive.google.com/file/d/ABC123/view?usp=sharing"
	if sub.DriveLink != want {
		t.Fatalf("driveLink = %q, want %q", sub.DriveLink, want)
	}
}

func TestApproveUnknownIDLeavesStoreUnchanged(t *testing.T) {
	engine, mem := newTestApp(t)
	submitTestBook(t, engine, "Dune", "Frank Herbert", 1)
	before, _ := mem.Load()

	if _, err := engine.Approve("no-such-id", "admin1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	after, _ := mem.Load()
	if len(after.Books) != len(before.Books) {
		t.Fatalf("book count changed on failed approve: %d -> %d", len(before.Books), len(after.Books))
	}
	if after.Books[0].Approved {
		t.Fatalf("failed approve mutated the submission")
	}
}

func TestApproveSetsApprovalFields(t *testing.T) {
	engine, _ := newTestApp(t)
	id := submitTestBook(t, engine, "Dune", "Frank Herbert", 1)

	book, err := engine.Approve(id, "admin1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if !book.Approved || book.ApprovedBy != "admin1" {
		t.Fatalf("approved submission = %+v", book)
	}
	if book.ApprovedAt == nil || !book.ApprovedAt.Equal(testNow) {
		t.Fatalf("approvedAt = %v, want %v", book.ApprovedAt, testNow)
	}
	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalApprovedBooks != 1 {
		t.Fatalf("totalApprovedBooks = %d, want 1", stats.TotalApprovedBooks)
	}
}

func TestRejectRemovesPendingSubmission(t *testing.T) {
	engine, _ := newTestApp(t)
	id := submitTestBook(t, engine, "Dune", "Frank Herbert", 1)

	if err := engine.Reject(id); err != nil {
		t.Fatalf("reject: %v", err)
	}
	pending, err := engine.PendingBooks()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending = %d, want 0", len(pending))
	}
	if err := engine.Reject(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second reject err = %v, want ErrNotFound", err)
	}
}

func TestRejectRefusesApprovedSubmission(t *testing.T) {
	engine, mem := newTestApp(t)
	id := submitTestBook(t, engine, "Dune", "Frank Herbert", 1)
	if _, err := engine.Approve(id, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := engine.Reject(id); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("err = %v, want ErrAlreadyApproved", err)
	}
	lib, _ := mem.Load()
	if len(lib.Books) != 1 || !lib.Books[0].Approved {
		t.Fatalf("approved record should survive rejection: %+v", lib.Books)
	}
}

func TestPendingBooksKeepsInsertionOrder(t *testing.T) {
	engine, _ := newTestApp(t)
	first := submitTestBook(t, engine, "First", "A", 1)
	approved := submitTestBook(t, engine, "Approved", "B", 2)
	second := submitTestBook(t, engine, "Second", "C", 3)
	if _, err := engine.Approve(approved, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	pending, err := engine.PendingBooks()
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first || pending[1].ID != second {
		t.Fatalf("pending order = %+v", pending)
	}
}

// approveAt backdates an approval directly in the store, keeping the
// engine's clock fixed.
func approveAt(t *testing.T, engine *App, mem *store.MemoryStore, id string, at time.Time) {
	t.Helper()
	if _, err := engine.Approve(id, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	lib, _ := mem.Load()
	for i := range lib.Books {
		if lib.Books[i].ID == id {
			when := at
			lib.Books[i].ApprovedAt = &when
		}
	}
	if err := mem.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func TestLeaderboardWindowFiltersByApprovalDate(t *testing.T) {
	engine, mem := newTestApp(t)
	recent := submitTestBook(t, engine, "Recent", "A", 1)
	old := submitTestBook(t, engine, "Old", "B", 2)
	approveAt(t, engine, mem, recent, testNow.AddDate(0, 0, -6))
	approveAt(t, engine, mem, old, testNow.AddDate(0, 0, -8))

	entries, err := engine.Leaderboard(7)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want only the 6-day-old approval", entries)
	}
	if entries[0].User.ID != 1 || entries[0].Count != 1 {
		t.Fatalf("entry = %+v", entries[0])
	}
}

func TestLeaderboardAllTimeCountsEveryApproval(t *testing.T) {
	engine, mem := newTestApp(t)
	for i := 0; i < 3; i++ {
		id := submitTestBook(t, engine, "Book", "Author", 7)
		approveAt(t, engine, mem, id, testNow.AddDate(0, 0, -100*(i+1)))
	}
	submitTestBook(t, engine, "Unapproved", "Author", 7)

	entries, err := engine.Leaderboard(0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Count != 3 {
		t.Fatalf("entries = %+v, want one contributor with 3", entries)
	}
}

func TestLeaderboardSkipsMissingApprovalDateInWindow(t *testing.T) {
	engine, mem := newTestApp(t)
	id := submitTestBook(t, engine, "NoDate", "A", 1)
	if _, err := engine.Approve(id, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	lib, _ := mem.Load()
	lib.Books[0].ApprovedAt = nil
	if err := mem.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}

	windowed, err := engine.Leaderboard(7)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(windowed) != 0 {
		t.Fatalf("windowed = %+v, want empty without approval date", windowed)
	}
	allTime, err := engine.Leaderboard(0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(allTime) != 1 {
		t.Fatalf("all-time should still count it: %+v", allTime)
	}
}

func TestLeaderboardSortsDescendingAndTruncates(t *testing.T) {
	engine, mem := newTestApp(t)
	for user := int64(1); user <= 12; user++ {
		for i := int64(0); i < user; i++ {
			id := submitTestBook(t, engine, "Book", "Author", user)
			approveAt(t, engine, mem, id, testNow.AddDate(0, 0, -1))
		}
	}

	entries, err := engine.Leaderboard(0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("len = %d, want top 10", len(entries))
	}
	if entries[0].User.ID != 12 || entries[0].Count != 12 {
		t.Fatalf("top entry = %+v", entries[0])
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Count > entries[i-1].Count {
			t.Fatalf("entries not descending at %d: %+v", i, entries)
		}
	}
}

func TestStatsMostActiveContributor(t *testing.T) {
	engine, _ := newTestApp(t)
	if err := engine.UpsertUser(1, "alice", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := engine.UpsertUser(2, "bob", "Bob"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stats, err := engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MostActive != nil {
		t.Fatalf("mostActive = %+v, want nil with no approved books", stats.MostActive)
	}
	if stats.TotalUsers != 2 {
		t.Fatalf("totalUsers = %d, want 2", stats.TotalUsers)
	}

	for i := 0; i < 2; i++ {
		id := submitTestBook(t, engine, "Book", "Author", 1)
		if _, err := engine.Approve(id, "admin1"); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	submitTestBook(t, engine, "Pending", "Author", 2)

	stats, err = engine.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalApprovedBooks != 2 || stats.PendingCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.MostActive == nil || stats.MostActive.Contributions != 2 {
		t.Fatalf("mostActive = %+v, want 2 contributions", stats.MostActive)
	}
}

func TestUserStatsApprovalRate(t *testing.T) {
	engine, _ := newTestApp(t)
	if err := engine.UpsertUser(5, "carol", "Carol"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	first := submitTestBook(t, engine, "One", "A", 5)
	submitTestBook(t, engine, "Two", "B", 5)
	if _, err := engine.Approve(first, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stats, err := engine.UserStats(5)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if stats.TotalSubmissions != 2 || stats.ApprovedCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.ApprovalRate != 50 {
		t.Fatalf("approvalRate = %v, want 50", stats.ApprovalRate)
	}
	if stats.User == nil || stats.User.Username != "carol" {
		t.Fatalf("user = %+v", stats.User)
	}

	empty, err := engine.UserStats(99)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if empty.ApprovalRate != 0 || empty.User != nil {
		t.Fatalf("empty stats = %+v", empty)
	}
}

func TestUpsertUserPreservesJoinDate(t *testing.T) {
	engine, mem := newTestApp(t)
	if err := engine.UpsertUser(1, "alice", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	lib, _ := mem.Load()
	joined := lib.Users[0].JoinedAt
	lib.Users[0].LastSeen = testNow.AddDate(0, 0, -30)
	if err := mem.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := engine.UpsertUser(1, "alice_renamed", "Alice"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	lib, _ = mem.Load()
	if len(lib.Users) != 1 {
		t.Fatalf("users = %d, want 1", len(lib.Users))
	}
	if lib.Users[0].Username != "alice_renamed" {
		t.Fatalf("username = %q, want refreshed", lib.Users[0].Username)
	}
	if !lib.Users[0].JoinedAt.Equal(joined) {
		t.Fatalf("joinedAt changed on upsert")
	}
	if !lib.Users[0].LastSeen.Equal(testNow) {
		t.Fatalf("lastSeen = %v, want %v", lib.Users[0].LastSeen, testNow)
	}
}

func TestCleanupKeepsApprovedAndRecent(t *testing.T) {
	engine, mem := newTestApp(t)
	oldPending := submitTestBook(t, engine, "Old Pending", "A", 1)
	freshPending := submitTestBook(t, engine, "Fresh Pending", "B", 2)
	oldApproved := submitTestBook(t, engine, "Old Approved", "C", 3)
	if _, err := engine.Approve(oldApproved, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	lib, _ := mem.Load()
	for i := range lib.Books {
		switch lib.Books[i].ID {
		case oldPending:
			lib.Books[i].SubmittedAt = testNow.AddDate(0, 0, -100)
		case freshPending:
			lib.Books[i].SubmittedAt = testNow.AddDate(0, 0, -10)
		case oldApproved:
			lib.Books[i].SubmittedAt = testNow.AddDate(0, 0, -200)
		}
	}
	if err := mem.Save(lib); err != nil {
		t.Fatalf("save: %v", err)
	}

	removed, err := engine.Cleanup(90)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	lib, _ = mem.Load()
	if len(lib.Books) != 2 {
		t.Fatalf("books = %d, want 2", len(lib.Books))
	}
	for _, book := range lib.Books {
		if book.ID == oldPending {
			t.Fatalf("old pending submission survived cleanup")
		}
	}
}

func TestSearchBooksMatchesApprovedOnly(t *testing.T) {
	engine, _ := newTestApp(t)
	approved := submitTestBook(t, engine, "Dune", "Frank Herbert", 1)
	submitTestBook(t, engine, "Dune Messiah", "Frank Herbert", 1)
	if _, err := engine.Approve(approved, "admin1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	results, err := engine.SearchBooks("dune")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != approved {
		t.Fatalf("results = %+v, want only the approved book", results)
	}
	byAuthor, err := engine.SearchBooks("HERBERT")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(byAuthor) != 1 {
		t.Fatalf("author search = %+v", byAuthor)
	}
}

func TestIsAdminFailsClosed(t *testing.T) {
	engine, _ := newTestApp(t)
	if !engine.IsAdmin(1000) {
		t.Fatalf("configured admin denied")
	}
	if engine.IsAdmin(1001) {
		t.Fatalf("unknown ID allowed")
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestSubmitHonorsLimiter(t *testing.T) {
	mem := store.NewMemoryStore()
	engine, err := New(Config{
		Store:   mem,
		Admins:  []int64{1000},
		Limiter: denyAllLimiter{},
		Now:     func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if _, err := engine.Submit(SubmitRequest{Title: "Dune", Author: "Frank Herbert", SubmitterID: 1}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	lib, _ := mem.Load()
	if len(lib.Books) != 0 {
		t.Fatalf("rate-limited submission was stored")
	}
}

package app

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"librarybot/pkg/domain"
	"librarybot/pkg/store"
)

// leaderboardSize caps every leaderboard at the top contributors.
const leaderboardSize = 10

// SubmissionLimiter caps how often a key may submit. Implementations
// decide the window; a nil limiter means no cap.
type SubmissionLimiter interface {
	Allow(key string) bool
}

// Config holds runtime configuration for the workflow engine.
type Config struct {
	Store   store.Store
	Admins  []int64
	Limiter SubmissionLimiter
	Now     func() time.Time
}

// App is the submission workflow and aggregation engine. Every operation
// performs a full read-modify-write of the library document; the mutex
// serializes them so two operations in this process cannot lose updates.
type App struct {
	mu      sync.Mutex
	store   store.Store
	admins  map[int64]struct{}
	limiter SubmissionLimiter
	now     func() time.Time
}

// New constructs the engine around a store and a static admin set.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	admins := make(map[int64]struct{}, len(cfg.Admins))
	for _, id := range cfg.Admins {
		admins[id] = struct{}{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &App{
		store:   cfg.Store,
		admins:  admins,
		limiter: cfg.Limiter,
		now:     now,
	}, nil
}

// IsAdmin reports whether the ID belongs to the configured admin set.
// Unknown IDs are denied.
func (a *App) IsAdmin(id int64) bool {
	_, ok := a.admins[id]
	return ok
}

// UpsertUser records or refreshes a participant. JoinedAt is set once;
// username, first name and last-seen are overwritten on every call.
func (a *App) UpsertUser(id int64, username, firstName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	now := a.now()
	for i := range lib.Users {
		if lib.Users[i].ID == id {
			lib.Users[i].Username = username
			lib.Users[i].FirstName = firstName
			lib.Users[i].LastSeen = now
			if err := a.store.Save(lib); err != nil {
				return fmt.Errorf("save library: %w", err)
			}
			return nil
		}
	}
	lib.Users = append(lib.Users, domain.User{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		JoinedAt:  now,
		LastSeen:  now,
	})
	if err := a.store.Save(lib); err != nil {
		return fmt.Errorf("save library: %w", err)
	}
	slog.Info("user_registered", "id", id, "username", username)
	return nil
}

// SubmitRequest carries one book submission. Either DriveLink or FileID
// may be empty.
type SubmitRequest struct {
	Title             string
	Author            string
	SubmitterID       int64
	SubmitterUsername string
	SubmitterName     string
	DriveLink         string
	FileID            string
}

// Submit appends a pending submission and returns it with its fresh ID.
func (a *App) Submit(req SubmitRequest) (domain.Submission, error) {
	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	if title == "" || author == "" {
		return domain.Submission{}, ErrEmptyField
	}
	if a.limiter != nil && !a.limiter.Allow(strconv.FormatInt(req.SubmitterID, 10)) {
		return domain.Submission{}, ErrRateLimited
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load library: %w", err)
	}
	sub := domain.Submission{
		ID:                uuid.NewString(),
		Title:             title,
		Author:            author,
		SubmitterID:       req.SubmitterID,
		SubmitterUsername: req.SubmitterUsername,
		SubmitterName:     req.SubmitterName,
		DriveLink:         NormalizeDriveLink(strings.TrimSpace(req.DriveLink)),
		FileID:            req.FileID,
		SubmittedAt:       a.now(),
	}
	lib.Books = append(lib.Books, sub)
	if err := a.store.Save(lib); err != nil {
		return domain.Submission{}, fmt.Errorf("save library: %w", err)
	}
	slog.Info("book_submitted", "id", sub.ID, "title", sub.Title, "author", sub.Author, "submitter_id", sub.SubmitterID)
	return sub, nil
}

// PendingBooks lists unapproved submissions in insertion order.
func (a *App) PendingBooks() ([]domain.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	pending := make([]domain.Submission, 0, len(lib.Books))
	for _, book := range lib.Books {
		if !book.Approved {
			pending = append(pending, book)
		}
	}
	return pending, nil
}

// Approve marks a submission approved and returns the updated record so
// the caller can forward it. ErrNotFound signals a stale ID; the store
// is left unchanged in that case.
func (a *App) Approve(id, approver string) (domain.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load library: %w", err)
	}
	for i := range lib.Books {
		if lib.Books[i].ID != id {
			continue
		}
		approvedAt := a.now()
		lib.Books[i].Approved = true
		lib.Books[i].ApprovedAt = &approvedAt
		lib.Books[i].ApprovedBy = approver
		if err := a.store.Save(lib); err != nil {
			return domain.Submission{}, fmt.Errorf("save library: %w", err)
		}
		slog.Info("book_approved", "id", id, "title", lib.Books[i].Title, "approved_by", approver)
		return lib.Books[i], nil
	}
	return domain.Submission{}, ErrNotFound
}

// Reject removes a pending submission outright. Rejection is destructive
// and keeps no audit trail beyond the log line. Approved submissions are
// refused with ErrAlreadyApproved.
func (a *App) Reject(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	for i := range lib.Books {
		if lib.Books[i].ID != id {
			continue
		}
		if lib.Books[i].Approved {
			return ErrAlreadyApproved
		}
		title := lib.Books[i].Title
		lib.Books = append(lib.Books[:i], lib.Books[i+1:]...)
		if err := a.store.Save(lib); err != nil {
			return fmt.Errorf("save library: %w", err)
		}
		slog.Info("book_rejected", "id", id, "title", title)
		return nil
	}
	return ErrNotFound
}

// UserSummary identifies a contributor on a leaderboard.
type UserSummary struct {
	ID       int64
	Username string
	Name     string
}

// Entry is one leaderboard row.
type Entry struct {
	User  UserSummary
	Count int
}

// Leaderboard aggregates approved contributions per submitter over the
// trailing window and returns the top contributors, descending by count.
// windowDays <= 0 means all-time. Ties keep scan order.
func (a *App) Leaderboard(windowDays int) ([]Entry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	return a.aggregate(lib, windowDays, leaderboardSize), nil
}

// WeeklyLeaderboard covers the trailing 7 days.
func (a *App) WeeklyLeaderboard() ([]Entry, error) { return a.Leaderboard(7) }

// MonthlyLeaderboard covers the trailing 30 days.
func (a *App) MonthlyLeaderboard() ([]Entry, error) { return a.Leaderboard(30) }

// AllTimeLeaderboard covers every approved submission.
func (a *App) AllTimeLeaderboard() ([]Entry, error) { return a.Leaderboard(0) }

// aggregate groups approved submissions by submitter. Names come from
// the last submission seen during the scan, which may lag the User
// record for renamed contributors. Windowed queries skip submissions
// without an approval timestamp.
func (a *App) aggregate(lib domain.Library, windowDays, limit int) []Entry {
	var cutoff time.Time
	if windowDays > 0 {
		cutoff = a.now().AddDate(0, 0, -windowDays)
	}
	index := make(map[int64]int)
	entries := make([]Entry, 0)
	for _, book := range lib.Books {
		if !book.Approved {
			continue
		}
		if windowDays > 0 {
			if book.ApprovedAt == nil || book.ApprovedAt.IsZero() {
				continue
			}
			if book.ApprovedAt.Before(cutoff) {
				continue
			}
		}
		i, ok := index[book.SubmitterID]
		if !ok {
			i = len(entries)
			index[book.SubmitterID] = i
			entries = append(entries, Entry{User: UserSummary{ID: book.SubmitterID}})
		}
		entries[i].Count++
		entries[i].User.Username = book.SubmitterUsername
		entries[i].User.Name = book.SubmitterName
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// Contributor is the most active submitter in LibraryStats.
type Contributor struct {
	Name          string
	Username      string
	Contributions int
}

// LibraryStats summarizes the whole library.
type LibraryStats struct {
	TotalApprovedBooks int
	TotalUsers         int
	PendingCount       int
	MostActive         *Contributor
}

// Stats computes library-wide totals. MostActive is nil with zero
// approved books; ties fall to scan order.
func (a *App) Stats() (LibraryStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return LibraryStats{}, fmt.Errorf("load library: %w", err)
	}
	stats := LibraryStats{TotalUsers: len(lib.Users)}
	for _, book := range lib.Books {
		if book.Approved {
			stats.TotalApprovedBooks++
		} else {
			stats.PendingCount++
		}
	}
	if top := a.aggregate(lib, 0, 1); len(top) > 0 {
		stats.MostActive = &Contributor{
			Name:          top[0].User.Name,
			Username:      top[0].User.Username,
			Contributions: top[0].Count,
		}
	}
	return stats, nil
}

// UserStats summarizes one submitter's record.
type UserStats struct {
	User             *domain.User
	TotalSubmissions int
	ApprovedCount    int
	ApprovalRate     float64
}

// UserStats reports a user's submission totals and approval rate in
// percent. The rate is zero when the user never submitted.
func (a *App) UserStats(userID int64) (UserStats, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return UserStats{}, fmt.Errorf("load library: %w", err)
	}
	var stats UserStats
	for _, book := range lib.Books {
		if book.SubmitterID != userID {
			continue
		}
		stats.TotalSubmissions++
		if book.Approved {
			stats.ApprovedCount++
		}
	}
	if stats.TotalSubmissions > 0 {
		stats.ApprovalRate = float64(stats.ApprovedCount) / float64(stats.TotalSubmissions) * 100
	}
	for i := range lib.Users {
		if lib.Users[i].ID == userID {
			user := lib.Users[i]
			stats.User = &user
			break
		}
	}
	return stats, nil
}

// SearchBooks matches approved books whose title or author contains the
// query, case-insensitively.
func (a *App) SearchBooks(query string) ([]domain.Submission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	results := make([]domain.Submission, 0)
	for _, book := range lib.Books {
		if !book.Approved {
			continue
		}
		if strings.Contains(strings.ToLower(book.Title), query) ||
			strings.Contains(strings.ToLower(book.Author), query) {
			results = append(results, book)
		}
	}
	return results, nil
}

// AllUsers lists every known participant, for admin broadcast.
func (a *App) AllUsers() ([]domain.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load library: %w", err)
	}
	return lib.Users, nil
}

// Cleanup drops submissions that are both unapproved and older than the
// retention window. Approved submissions survive regardless of age.
// Returns the number removed.
func (a *App) Cleanup(days int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, err := a.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load library: %w", err)
	}
	cutoff := a.now().AddDate(0, 0, -days)
	kept := make([]domain.Submission, 0, len(lib.Books))
	for _, book := range lib.Books {
		if book.Approved || !book.SubmittedAt.Before(cutoff) {
			kept = append(kept, book)
		}
	}
	removed := len(lib.Books) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	lib.Books = kept
	if err := a.store.Save(lib); err != nil {
		return 0, fmt.Errorf("save library: %w", err)
	}
	slog.Info("cleanup_removed_submissions", "count", removed, "retention_days", days)
	return removed, nil
}

// Backup snapshots the library document through the store.
func (a *App) Backup() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Backup()
}

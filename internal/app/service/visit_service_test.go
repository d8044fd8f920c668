package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reflens/reflens/internal/app/model"
	"github.com/reflens/reflens/internal/app/repository"
)

type mockVisitRepository struct {
	createFn      func(ctx context.Context, visit *model.Visit) error
	countByCodeFn func(ctx context.Context, code string) (int64, error)
}

func (m *mockVisitRepository) Create(ctx context.Context, visit *model.Visit) error {
	if m.createFn != nil {
		return m.createFn(ctx, visit)
	}
	return nil
}

func (m *mockVisitRepository) CountByCode(ctx context.Context, code string) (int64, error) {
	if m.countByCodeFn != nil {
		return m.countByCodeFn(ctx, code)
	}
	return 0, nil
}

type mockNotifier struct {
	notified chan string
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{notified: make(chan string, 8)}
}

func (m *mockNotifier) NotifyFirstVisit(ctx context.Context, refCode string) {
	m.notified <- refCode
}

func (m *mockNotifier) waitForNotification(t *testing.T) string {
	t.Helper()
	select {
	case code := <-m.notified:
		return code
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

func (m *mockNotifier) assertNoNotification(t *testing.T) {
	t.Helper()
	select {
	case code := <-m.notified:
		t.Fatalf("unexpected notification for %q", code)
	case <-time.After(50 * time.Millisecond):
	}
}

func activeCodeRepo(code string) *mockRefCodeRepository {
	return &mockRefCodeRepository{
		getFn: func(ctx context.Context, c string) (*model.RefCode, error) {
			if c == code {
				return &model.RefCode{ID: 1, RefCode: code, ApplicationID: 1, IsActive: true}, nil
			}
			return nil, repository.ErrRefCodeNotFound
		},
	}
}

// visitStore keeps inserted visits in memory so count-then-insert behaves
// like the real table under sequential calls.
type visitStore struct {
	visits []*model.Visit
}

func (s *visitStore) repo() *mockVisitRepository {
	return &mockVisitRepository{
		createFn: func(ctx context.Context, visit *model.Visit) error {
			s.visits = append(s.visits, visit)
			return nil
		},
		countByCodeFn: func(ctx context.Context, code string) (int64, error) {
			var n int64
			for _, v := range s.visits {
				if v.RefCode == code {
					n++
				}
			}
			return n, nil
		},
	}
}

func TestVisitService_Record_EmptyCode(t *testing.T) {
	lookups := 0
	codes := &mockRefCodeRepository{
		getFn: func(ctx context.Context, c string) (*model.RefCode, error) {
			lookups++
			return nil, repository.ErrRefCodeNotFound
		},
	}
	svc := NewVisitService(codes, &mockVisitRepository{}, NewRateLimiter(time.Hour), nil, nil, nil)

	logged, err := svc.Record(context.Background(), "", "1.2.3.4")
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if logged {
		t.Fatal("empty code must not log")
	}
	if lookups != 0 {
		t.Fatal("empty code must short-circuit before the store")
	}
}

func TestVisitService_Record_UnknownCode(t *testing.T) {
	store := &visitStore{}
	svc := NewVisitService(activeCodeRepo("abcd1234"), store.repo(), NewRateLimiter(time.Hour), nil, nil, nil)

	logged, err := svc.Record(context.Background(), "nonexistent-token", "1.2.3.4")
	if err != nil {
		t.Fatalf("unknown code must not error, got: %v", err)
	}
	if logged {
		t.Fatal("unknown code must not log")
	}
	if len(store.visits) != 0 {
		t.Fatalf("expected no visit rows, got %d", len(store.visits))
	}
}

func TestVisitService_Record_InactiveCode(t *testing.T) {
	codes := &mockRefCodeRepository{
		getFn: func(ctx context.Context, c string) (*model.RefCode, error) {
			return &model.RefCode{ID: 1, RefCode: c, ApplicationID: 1, IsActive: false}, nil
		},
	}
	store := &visitStore{}
	svc := NewVisitService(codes, store.repo(), NewRateLimiter(time.Hour), nil, nil, nil)

	logged, err := svc.Record(context.Background(), "abcd1234", "1.2.3.4")
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if logged || len(store.visits) != 0 {
		t.Fatal("inactive code must not log")
	}
}

func TestVisitService_Record_RateLimitWindow(t *testing.T) {
	store := &visitStore{}
	limiter := NewRateLimiter(time.Hour)
	now := time.Now()
	limiter.now = func() time.Time { return now }
	svc := NewVisitService(activeCodeRepo("abcd1234"), store.repo(), limiter, nil, nil, nil)
	ctx := context.Background()

	logged, err := svc.Record(ctx, "abcd1234", "1.2.3.4")
	if err != nil || !logged {
		t.Fatalf("first visit should log, got logged=%v err=%v", logged, err)
	}

	logged, err = svc.Record(ctx, "abcd1234", "1.2.3.4")
	if err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	if logged {
		t.Fatal("repeat within window must be suppressed")
	}
	if len(store.visits) != 1 {
		t.Fatalf("expected exactly one visit row, got %d", len(store.visits))
	}

	now = now.Add(61 * time.Minute)
	logged, err = svc.Record(ctx, "abcd1234", "1.2.3.4")
	if err != nil || !logged {
		t.Fatalf("visit after window should log, got logged=%v err=%v", logged, err)
	}
	if len(store.visits) != 2 {
		t.Fatalf("expected two visit rows, got %d", len(store.visits))
	}
}

func TestVisitService_Record_SequentialCounts(t *testing.T) {
	store := &visitStore{}
	svc := NewVisitService(activeCodeRepo("abcd1234"), store.repo(), NewRateLimiter(time.Hour), nil, nil, nil)
	ctx := context.Background()

	sources := []string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"}
	for _, src := range sources {
		logged, err := svc.Record(ctx, "abcd1234", src)
		if err != nil || !logged {
			t.Fatalf("visit from %s should log, got logged=%v err=%v", src, logged, err)
		}
	}

	for i, v := range store.visits {
		if v.VisitCount != i+1 {
			t.Fatalf("visit %d stored with count %d", i+1, v.VisitCount)
		}
	}
}

func TestVisitService_Record_NotifiesOnlyOnFirstVisit(t *testing.T) {
	store := &visitStore{}
	notifier := newMockNotifier()
	svc := NewVisitService(activeCodeRepo("abcd1234"), store.repo(), NewRateLimiter(time.Hour), nil, notifier, nil)
	ctx := context.Background()

	if logged, _ := svc.Record(ctx, "abcd1234", "1.1.1.1"); !logged {
		t.Fatal("first visit should log")
	}
	if code := notifier.waitForNotification(t); code != "abcd1234" {
		t.Fatalf("expected notification for abcd1234, got %q", code)
	}

	if logged, _ := svc.Record(ctx, "abcd1234", "2.2.2.2"); !logged {
		t.Fatal("second visit should log")
	}
	notifier.assertNoNotification(t)
}

func TestVisitService_Record_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("connection refused")
	visits := &mockVisitRepository{
		countByCodeFn: func(ctx context.Context, code string) (int64, error) {
			return 0, boom
		},
	}
	svc := NewVisitService(activeCodeRepo("abcd1234"), visits, NewRateLimiter(time.Hour), nil, nil, nil)

	_, err := svc.Record(context.Background(), "abcd1234", "1.2.3.4")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

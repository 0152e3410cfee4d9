package service

import (
	"testing"
	"time"

	"online_course_backend/internal/model"
	"online_course_backend/pkg/logger"
)

func init() {
	logger.InitTestLogger()
}

type fakeSubscriptionSource struct {
	expiring []model.Subscription
	due      []model.Subscription
	expired  int64
}

func (f *fakeSubscriptionSource) ListActiveExpiringBetween(from, to time.Time) ([]model.Subscription, error) {
	var out []model.Subscription
	for _, s := range f.expiring {
		if s.EndDate.After(from) && !s.EndDate.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubscriptionSource) ListActiveDue(now time.Time) ([]model.Subscription, error) {
	return f.due, nil
}

func (f *fakeSubscriptionSource) ExpireDue(now time.Time) (int64, error) {
	return f.expired, nil
}

type recordedNotice struct {
	userID uint
	kind   string
}

type fakeNotifier struct {
	notices []recordedNotice
}

func (f *fakeNotifier) Notify(userID uint, kind, title, message string, relatedID uint) {
	f.notices = append(f.notices, recordedNotice{userID: userID, kind: kind})
}

func subEndingIn(userID uint, now time.Time, d time.Duration) model.Subscription {
	s := model.Subscription{
		UserID:  userID,
		Status:  model.SubscriptionActive,
		EndDate: now.Add(d),
	}
	return s
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		until time.Duration
		want  int
	}{
		{72 * time.Hour, 3},
		{71 * time.Hour, 3}, // 不足一天向上取整
		{49 * time.Hour, 3},
		{48 * time.Hour, 2},
		{time.Hour, 1},
		{0, 0},
	}

	for _, tc := range cases {
		if got := DaysRemaining(now.Add(tc.until), now); got != tc.want {
			t.Errorf("DaysRemaining(+%v) = %d, want %d", tc.until, got, tc.want)
		}
	}
}

func TestRunPassNotifiesOnlyAtCheckpoints(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	source := &fakeSubscriptionSource{
		expiring: []model.Subscription{
			subEndingIn(1, now, 7*24*time.Hour),         // 7 天检查点
			subEndingIn(2, now, 3*24*time.Hour),         // 3 天检查点
			subEndingIn(3, now, 24*time.Hour),           // 1 天检查点
			subEndingIn(4, now, 4*24*time.Hour),         // 4 天，不提醒
			subEndingIn(5, now, 2*24*time.Hour),         // 2 天，不提醒
			subEndingIn(6, now, 6*24*time.Hour+time.Hour), // 取整后 7 天
		},
	}
	notifier := &fakeNotifier{}

	lc := NewSubscriptionLifecycle(source, notifier)
	lc.Now = func() time.Time { return now }

	result, err := lc.RunPass()
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}

	if result.NotifiedCount != 4 {
		t.Fatalf("notified = %d, want 4", result.NotifiedCount)
	}

	notified := map[uint]bool{}
	for _, n := range notifier.notices {
		if n.kind != model.NotificationSubscriptionExpiring {
			t.Errorf("unexpected notification kind %q", n.kind)
		}
		notified[n.userID] = true
	}
	for _, want := range []uint{1, 2, 3, 6} {
		if !notified[want] {
			t.Errorf("user %d should have been notified", want)
		}
	}
	if notified[4] || notified[5] {
		t.Error("users at 4 and 2 days remaining must not be notified")
	}
}

// 每轮每个检查点只命中一次：同一订阅在 3 天检查点当天只发一条
func TestRunPassSingleNoticePerCheckpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	source := &fakeSubscriptionSource{
		expiring: []model.Subscription{subEndingIn(1, now, 3*24*time.Hour)},
	}
	notifier := &fakeNotifier{}

	lc := NewSubscriptionLifecycle(source, notifier)
	lc.Now = func() time.Time { return now }

	if _, err := lc.RunPass(); err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notifier.notices))
	}
}

func TestRunPassExpiresAndNotifiesDue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	due := subEndingIn(9, now, -time.Hour)
	source := &fakeSubscriptionSource{
		due:     []model.Subscription{due},
		expired: 1,
	}
	notifier := &fakeNotifier{}

	lc := NewSubscriptionLifecycle(source, notifier)
	lc.Now = func() time.Time { return now }

	result, err := lc.RunPass()
	if err != nil {
		t.Fatalf("RunPass: %v", err)
	}
	if result.ExpiredCount != 1 {
		t.Errorf("expired = %d, want 1", result.ExpiredCount)
	}

	foundExpired := false
	for _, n := range notifier.notices {
		if n.kind == model.NotificationSubscriptionExpired && n.userID == 9 {
			foundExpired = true
		}
	}
	if !foundExpired {
		t.Error("due subscription owner should receive an expired notification")
	}
}

func TestLifecycleStopWithoutStart(t *testing.T) {
	lc := NewSubscriptionLifecycle(&fakeSubscriptionSource{}, &fakeNotifier{})

	done := make(chan struct{})
	go func() {
		lc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop without Start should return immediately")
	}
}

func TestLifecycleStartStop(t *testing.T) {
	source := &fakeSubscriptionSource{}
	lc := NewSubscriptionLifecycle(source, &fakeNotifier{})

	lc.Start(time.Hour)

	done := make(chan struct{})
	go func() {
		lc.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after Start")
	}
}

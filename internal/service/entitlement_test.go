package service

import (
	"testing"
	"time"

	"online_course_backend/internal/model"
)

var entitlementNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func paidEnrollment(status model.PaymentStatus) *model.Enrollment {
	return &model.Enrollment{PaymentStatus: status}
}

func subscriptionEnding(end time.Time, status model.SubscriptionStatus) *model.Subscription {
	return &model.Subscription{
		Status:    status,
		StartDate: end.AddDate(0, 0, -30),
		EndDate:   end,
	}
}

func TestResolveLessonAccessDecisionOrder(t *testing.T) {
	lesson := &model.Lesson{}
	demo := &model.Lesson{IsDemo: true}

	cases := []struct {
		name       string
		lesson     *model.Lesson
		role       model.UserRole
		enrollment *model.Enrollment
		sub        *model.Subscription
		unlocked   bool
		reason     LockReason
	}{
		{
			name:     "教师预览绕过所有校验",
			lesson:   lesson,
			role:     model.Instructor,
			unlocked: true,
		},
		{
			name:     "管理员绕过所有校验",
			lesson:   lesson,
			role:     model.Admin,
			unlocked: true,
		},
		{
			name:     "体验课时对匿名访客开放",
			lesson:   demo,
			role:     "",
			unlocked: true,
		},
		{
			name:     "体验课时对过期订阅学生开放",
			lesson:   demo,
			role:     model.Student,
			enrollment: paidEnrollment(model.PaymentApproved),
			sub:      subscriptionEnding(entitlementNow.AddDate(0, 0, -1), model.SubscriptionExpired),
			unlocked: true,
		},
		{
			name:     "未报名",
			lesson:   lesson,
			role:     model.Student,
			unlocked: false,
			reason:   ReasonNeverEnrolled,
		},
		{
			name:       "报名待审核",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentPending),
			unlocked:   false,
			reason:     ReasonPaymentPending,
		},
		{
			name:       "报名被驳回",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentRejected),
			unlocked:   false,
			reason:     ReasonPaymentPending,
		},
		{
			name:       "已付款但从未有订阅",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentApproved),
			unlocked:   false,
			reason:     ReasonSubscriptionExpired,
		},
		{
			name:       "订阅已过期",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentApproved),
			sub:        subscriptionEnding(entitlementNow.AddDate(0, 0, -1), model.SubscriptionExpired),
			unlocked:   false,
			reason:     ReasonSubscriptionExpired,
		},
		{
			name:       "人工审核通过且订阅有效",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentApproved),
			sub:        subscriptionEnding(entitlementNow.AddDate(0, 0, 10), model.SubscriptionActive),
			unlocked:   true,
		},
		{
			name:       "渠道回调确认同样放行",
			lesson:     lesson,
			role:       model.Student,
			enrollment: paidEnrollment(model.PaymentConfirmed),
			sub:        subscriptionEnding(entitlementNow.AddDate(0, 0, 10), model.SubscriptionActive),
			unlocked:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := ResolveLessonAccess(tc.lesson, tc.role, tc.enrollment, tc.sub, entitlementNow)
			if d.Unlocked != tc.unlocked {
				t.Errorf("unlocked = %v, want %v", d.Unlocked, tc.unlocked)
			}
			if d.Reason != tc.reason {
				t.Errorf("reason = %q, want %q", d.Reason, tc.reason)
			}
		})
	}
}

// 状态字段还是 active 但 EndDate 已过，必须按时间现算拒绝
func TestResolveLessonAccessStaleActiveStatus(t *testing.T) {
	lesson := &model.Lesson{}
	sub := subscriptionEnding(entitlementNow.Add(-time.Second), model.SubscriptionActive)

	d := ResolveLessonAccess(lesson, model.Student, paidEnrollment(model.PaymentApproved), sub, entitlementNow)
	if d.Unlocked {
		t.Fatal("unlocked = true, want false for stale active subscription")
	}
	if d.Reason != ReasonSubscriptionExpired {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonSubscriptionExpired)
	}
}

// 到期时刻本身算过期，EndDate 必须严格晚于 now
func TestResolveLessonAccessBoundary(t *testing.T) {
	lesson := &model.Lesson{}
	sub := subscriptionEnding(entitlementNow, model.SubscriptionActive)

	d := ResolveLessonAccess(lesson, model.Student, paidEnrollment(model.PaymentApproved), sub, entitlementNow)
	if d.Unlocked {
		t.Error("subscription ending exactly now should be treated as expired")
	}
}

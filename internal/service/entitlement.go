package service

import (
	"time"

	"online_course_backend/internal/model"
)

// LockReason 课时被锁定的原因码，前端据此展示不同提示
type LockReason string

const (
	ReasonNeverEnrolled       LockReason = "never_enrolled"
	ReasonPaymentPending      LockReason = "payment_pending"
	ReasonSubscriptionExpired LockReason = "subscription_expired"
)

// AccessDecision 一次课时访问裁决
type AccessDecision struct {
	Unlocked bool       `json:"unlocked"`
	Reason   LockReason `json:"reason,omitempty"`
}

// ResolveLessonAccess 判定某用户此刻能否访问某课时，纯函数、每次请求现算。
// 判定顺序（命中即返回）：
//  1. instructor/admin 预览放行
//  2. 体验课时对任何人放行
//  3. 未报名
//  4. 报名未完成付款
//  5. 无按 EndDate 计算仍有效的订阅（从未开通和已过期对外表现一致）
//
// 订阅有效性必须按 EndDate 现算，存储中的 status 只是缓存，后台轮询
// 没刷到的过期订阅在这里同样视为失效
func ResolveLessonAccess(lesson *model.Lesson, role model.UserRole, enrollment *model.Enrollment, sub *model.Subscription, now time.Time) AccessDecision {
	if role == model.Instructor || role == model.Admin {
		return AccessDecision{Unlocked: true}
	}

	if lesson.IsDemo {
		return AccessDecision{Unlocked: true}
	}

	if enrollment == nil {
		return AccessDecision{Unlocked: false, Reason: ReasonNeverEnrolled}
	}

	if !enrollment.PaymentStatus.Paid() {
		return AccessDecision{Unlocked: false, Reason: ReasonPaymentPending}
	}

	if sub == nil || !sub.ActiveAt(now) {
		return AccessDecision{Unlocked: false, Reason: ReasonSubscriptionExpired}
	}

	return AccessDecision{Unlocked: true}
}

package util

import "errors"

var (
	ErrUserNotFound         = errors.New("用户不存在")
	ErrEmailRegistered      = errors.New("该邮箱已被注册")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrCourseNotFound       = errors.New("course not found")
	ErrLessonNotFound       = errors.New("lesson not found")
	ErrTestNotFound         = errors.New("test not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrEnrollmentNotFound   = errors.New("enrollment not found")
	ErrAlreadyEnrolled      = errors.New("already enrolled in this course")
	ErrPaymentFinalized     = errors.New("payment status already finalized")
	ErrUnknownQuestionType  = errors.New("unknown question type")
	ErrInvalidAnswerShape   = errors.New("answer has wrong shape for question type")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

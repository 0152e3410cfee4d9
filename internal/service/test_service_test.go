package service

import (
	"testing"
	"time"

	"online_course_backend/internal/model"
)

func attempt(id uint, score, total int, passed bool) model.TestAttempt {
	a := model.TestAttempt{
		Score:       score,
		TotalPoints: total,
		IsPassed:    passed,
	}
	a.ID = id
	a.CreatedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute)
	return a
}

func TestSummarizeAttempts(t *testing.T) {
	attempts := []model.TestAttempt{
		attempt(1, 6, 10, false),
		attempt(2, 9, 10, true),
		attempt(3, 3, 10, false),
	}

	summary := SummarizeAttempts(attempts)

	if len(summary.Attempts) != 3 {
		t.Fatalf("attempts = %d, want 3", len(summary.Attempts))
	}
	if summary.Best == nil || summary.Best.ID != 2 {
		t.Errorf("best = %+v, want attempt 2", summary.Best)
	}
	if summary.Worst == nil || summary.Worst.ID != 3 {
		t.Errorf("worst = %+v, want attempt 3", summary.Worst)
	}
	if summary.Best.Percentage != 90 {
		t.Errorf("best percentage = %v, want 90", summary.Best.Percentage)
	}
}

func TestSummarizeAttemptsEmpty(t *testing.T) {
	summary := SummarizeAttempts(nil)
	if summary.Best != nil || summary.Worst != nil {
		t.Error("best/worst should be nil when there are no attempts")
	}
	if len(summary.Attempts) != 0 {
		t.Errorf("attempts = %d, want 0", len(summary.Attempts))
	}
}

// 历史记录的百分比按该次作答自己的总分换算，与测验当前题目无关
func TestSummarizeAttemptsHistoricalTotals(t *testing.T) {
	attempts := []model.TestAttempt{
		attempt(1, 5, 10, false), // 当时总分 10
		attempt(2, 5, 20, false), // 题目增加后总分 20
	}

	summary := SummarizeAttempts(attempts)

	if got := summary.Attempts[0].Percentage; got != 50 {
		t.Errorf("attempt 1 percentage = %v, want 50", got)
	}
	if got := summary.Attempts[1].Percentage; got != 25 {
		t.Errorf("attempt 2 percentage = %v, want 25", got)
	}
}

func TestAttemptPercentageZeroTotal(t *testing.T) {
	a := attempt(1, 0, 0, false)
	if got := a.Percentage(); got != 0 {
		t.Errorf("percentage = %v, want 0 when total is 0", got)
	}
}

func TestValidQuestionType(t *testing.T) {
	valid := []model.QuestionType{
		model.MultipleChoice, model.TrueFalse, model.FillBlanks,
		model.Matching, model.ShortAnswer, model.Essay,
	}
	for _, qt := range valid {
		if !validQuestionType(qt) {
			t.Errorf("validQuestionType(%q) = false, want true", qt)
		}
	}
	if validQuestionType("ranking") {
		t.Error(`validQuestionType("ranking") = true, want false`)
	}
}

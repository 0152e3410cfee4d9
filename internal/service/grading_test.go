package service

import (
	"encoding/json"
	"errors"
	"testing"

	"online_course_backend/internal/model"
	"online_course_backend/internal/util"
)

func strPtr(s string) *string { return &s }

func mcQuestion(id uint, points int, optionIDs []uint, correctIDs map[uint]bool) model.Question {
	q := model.Question{
		Type:   model.MultipleChoice,
		Points: points,
	}
	q.ID = id
	for _, oid := range optionIDs {
		opt := model.QuestionOption{IsCorrect: correctIDs[oid]}
		opt.ID = oid
		q.Options = append(q.Options, opt)
	}
	return q
}

func matchingQuestion(id uint, points int, pairs [][2]int) model.Question {
	cfg, _ := json.Marshal(model.MatchingConfig{
		LeftColumn:   []string{"猫", "狗", "鸟"},
		RightColumn:  []string{"喵", "汪", "啾"},
		CorrectPairs: pairs,
	})
	q := model.Question{
		Type:   model.Matching,
		Points: points,
		Config: cfg,
	}
	q.ID = id
	return q
}

func rawAnswer(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return data
}

func TestGradeMultipleChoiceExactSet(t *testing.T) {
	q := mcQuestion(1, 4, []uint{10, 11, 12, 13}, map[uint]bool{10: true, 12: true})

	cases := []struct {
		name     string
		selected []uint
		want     int
	}{
		{"完全一致", []uint{10, 12}, 4},
		{"顺序无关", []uint{12, 10}, 4},
		{"漏选", []uint{10}, 0},
		{"多选", []uint{10, 12, 11}, 0},
		{"全错", []uint{11, 13}, 0},
		{"空选择", []uint{}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := map[uint]json.RawMessage{1: rawAnswer(t, tc.selected)}
			result, err := GradeAnswers([]model.Question{q}, answers)
			if err != nil {
				t.Fatalf("GradeAnswers: %v", err)
			}
			if result.Score != tc.want {
				t.Errorf("score = %d, want %d", result.Score, tc.want)
			}
			if result.TotalPoints != 4 {
				t.Errorf("totalPoints = %d, want 4", result.TotalPoints)
			}
		})
	}
}

func TestGradeMultipleChoiceNoCorrectOptions(t *testing.T) {
	// 没有任何选项标记为正确时永不给分
	q := mcQuestion(1, 2, []uint{10, 11}, nil)
	answers := map[uint]json.RawMessage{1: rawAnswer(t, []uint{10, 11})}

	result, err := GradeAnswers([]model.Question{q}, answers)
	if err != nil {
		t.Fatalf("GradeAnswers: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestGradeTrueFalse(t *testing.T) {
	q := model.Question{Type: model.TrueFalse, Points: 2, CorrectAnswer: strPtr("true")}
	q.ID = 1

	cases := []struct {
		submitted string
		want      int
	}{
		{"true", 2},
		{"false", 0},
		{"True", 0}, // 大小写敏感
		{"", 0},
	}

	for _, tc := range cases {
		answers := map[uint]json.RawMessage{1: rawAnswer(t, tc.submitted)}
		result, err := GradeAnswers([]model.Question{q}, answers)
		if err != nil {
			t.Fatalf("GradeAnswers(%q): %v", tc.submitted, err)
		}
		if result.Score != tc.want {
			t.Errorf("submitted %q: score = %d, want %d", tc.submitted, result.Score, tc.want)
		}
	}
}

func TestGradeFillBlanks(t *testing.T) {
	q := model.Question{Type: model.FillBlanks, Points: 3, CorrectAnswer: strPtr("Goroutine")}
	q.ID = 1

	cases := []struct {
		submitted string
		want      int
	}{
		{"Goroutine", 3},
		{"goroutine", 3},     // 大小写不敏感
		{"  GOROUTINE  ", 3}, // 首尾空白忽略
		{"Go routine", 0},
		{"", 0},
	}

	for _, tc := range cases {
		answers := map[uint]json.RawMessage{1: rawAnswer(t, tc.submitted)}
		result, err := GradeAnswers([]model.Question{q}, answers)
		if err != nil {
			t.Fatalf("GradeAnswers(%q): %v", tc.submitted, err)
		}
		if result.Score != tc.want {
			t.Errorf("submitted %q: score = %d, want %d", tc.submitted, result.Score, tc.want)
		}
	}
}

func TestGradeShortAnswerKeywordThreshold(t *testing.T) {
	q := model.Question{Type: model.ShortAnswer, Points: 5, CorrectAnswer: strPtr("dog,cat,bird")}
	q.ID = 1

	cases := []struct {
		name      string
		submitted string
		want      int
	}{
		{"三个全中", "I saw a dog, a cat and a bird today", 5},
		{"命中两个过半", "the dog chased the cat", 5},
		{"只中一个不足半", "just a dog", 0},
		{"一个不中", "nothing relevant here", 0},
		{"大小写不敏感", "DOG and CAT", 5},
		{"子串匹配", "hotdog category", 5}, // dog、cat 均以子串出现
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := map[uint]json.RawMessage{1: rawAnswer(t, tc.submitted)}
			result, err := GradeAnswers([]model.Question{q}, answers)
			if err != nil {
				t.Fatalf("GradeAnswers: %v", err)
			}
			if result.Score != tc.want {
				t.Errorf("score = %d, want %d", result.Score, tc.want)
			}
		})
	}
}

func TestGradeShortAnswerEmptyKeywords(t *testing.T) {
	q := model.Question{Type: model.ShortAnswer, Points: 5, CorrectAnswer: strPtr(" , , ")}
	q.ID = 1
	answers := map[uint]json.RawMessage{1: rawAnswer(t, "anything")}

	result, err := GradeAnswers([]model.Question{q}, answers)
	if err != nil {
		t.Fatalf("GradeAnswers: %v", err)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
}

func TestGradeMatching(t *testing.T) {
	q := matchingQuestion(1, 6, [][2]int{{0, 0}, {1, 1}, {2, 2}})

	cases := []struct {
		name      string
		submitted [][2]int
		want      int
	}{
		{"完全一致", [][2]int{{0, 0}, {1, 1}, {2, 2}}, 6},
		{"顺序无关", [][2]int{{2, 2}, {0, 0}, {1, 1}}, 6},
		{"一对错误", [][2]int{{0, 0}, {1, 2}, {2, 1}}, 0},
		{"数量不符", [][2]int{{0, 0}, {1, 1}}, 0},
		{"空提交", [][2]int{}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			answers := map[uint]json.RawMessage{1: rawAnswer(t, tc.submitted)}
			result, err := GradeAnswers([]model.Question{q}, answers)
			if err != nil {
				t.Fatalf("GradeAnswers: %v", err)
			}
			if result.Score != tc.want {
				t.Errorf("score = %d, want %d", result.Score, tc.want)
			}
		})
	}
}

func TestGradeEssayPendingReview(t *testing.T) {
	essay := model.Question{Type: model.Essay, Points: 10}
	essay.ID = 1
	tf := model.Question{Type: model.TrueFalse, Points: 2, CorrectAnswer: strPtr("false")}
	tf.ID = 2

	answers := map[uint]json.RawMessage{
		1: rawAnswer(t, "长篇论述……"),
		2: rawAnswer(t, "false"),
	}

	result, err := GradeAnswers([]model.Question{essay, tf}, answers)
	if err != nil {
		t.Fatalf("GradeAnswers: %v", err)
	}
	if !result.HasEssay {
		t.Error("HasEssay = false, want true")
	}
	// essay 题计入总分但不计得分
	if result.TotalPoints != 12 {
		t.Errorf("totalPoints = %d, want 12", result.TotalPoints)
	}
	if result.Score != 2 {
		t.Errorf("score = %d, want 2", result.Score)
	}
}

func TestGradeSkipsUnanswered(t *testing.T) {
	q1 := model.Question{Type: model.TrueFalse, Points: 2, CorrectAnswer: strPtr("true")}
	q1.ID = 1
	q2 := model.Question{Type: model.FillBlanks, Points: 3, CorrectAnswer: strPtr("x")}
	q2.ID = 2

	// 只答第一题，第二题缺 key
	answers := map[uint]json.RawMessage{1: rawAnswer(t, "true")}
	result, err := GradeAnswers([]model.Question{q1, q2}, answers)
	if err != nil {
		t.Fatalf("GradeAnswers: %v", err)
	}
	if result.Score != 2 || result.TotalPoints != 5 {
		t.Errorf("got %d/%d, want 2/5", result.Score, result.TotalPoints)
	}
}

func TestGradeIgnoresUnknownQuestionIDs(t *testing.T) {
	q := model.Question{Type: model.TrueFalse, Points: 2, CorrectAnswer: strPtr("true")}
	q.ID = 1

	answers := map[uint]json.RawMessage{
		1:   rawAnswer(t, "true"),
		999: rawAnswer(t, "whatever"),
	}
	result, err := GradeAnswers([]model.Question{q}, answers)
	if err != nil {
		t.Fatalf("GradeAnswers: %v", err)
	}
	if result.Score != 2 {
		t.Errorf("score = %d, want 2", result.Score)
	}
}

func TestGradeUnknownQuestionType(t *testing.T) {
	q := model.Question{Type: "ranking", Points: 2}
	q.ID = 1

	answers := map[uint]json.RawMessage{1: rawAnswer(t, "x")}
	_, err := GradeAnswers([]model.Question{q}, answers)
	if !errors.Is(err, util.ErrUnknownQuestionType) {
		t.Errorf("err = %v, want ErrUnknownQuestionType", err)
	}
}

func TestGradeInvalidAnswerShape(t *testing.T) {
	q := mcQuestion(1, 2, []uint{10}, map[uint]bool{10: true})

	// multiple_choice 期望 id 列表，提交字符串
	answers := map[uint]json.RawMessage{1: rawAnswer(t, "10")}
	_, err := GradeAnswers([]model.Question{q}, answers)
	if !errors.Is(err, util.ErrInvalidAnswerShape) {
		t.Errorf("err = %v, want ErrInvalidAnswerShape", err)
	}
}

package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"online_course_backend/internal/model"
	"online_course_backend/internal/util"
)

// GradeResult 自动判分结果。HasEssay 为 true 时调用方应提示"待人工评阅"
// 而不是按当前分数直接判定不及格
type GradeResult struct {
	Score       int  `json:"score"`
	TotalPoints int  `json:"totalPoints"`
	HasEssay    bool `json:"hasEssay"`
}

// GradeAnswers 对一次提交判分。每道题全对得满分、否则 0 分，不存在部分给分。
// 未作答（缺 key 或空列表）的题跳过判分计 0 分；answers 中引用不存在题目的
// 条目忽略；题型未知视为数据完整性问题，直接报错，不落任何记录
func GradeAnswers(questions []model.Question, answers map[uint]json.RawMessage) (*GradeResult, error) {
	result := &GradeResult{}

	for i := range questions {
		q := &questions[i]
		result.TotalPoints += q.Points

		if q.Type == model.Essay {
			result.HasEssay = true
			continue
		}

		raw, ok := answers[q.ID]
		if !ok || len(raw) == 0 {
			continue
		}

		correct, err := gradeOne(q, raw)
		if err != nil {
			return nil, err
		}
		if correct {
			result.Score += q.Points
		}
	}

	return result, nil
}

func gradeOne(q *model.Question, raw json.RawMessage) (bool, error) {
	switch q.Type {
	case model.MultipleChoice:
		return gradeMultipleChoice(q, raw)
	case model.TrueFalse:
		return gradeTrueFalse(q, raw)
	case model.FillBlanks:
		return gradeFillBlanks(q, raw)
	case model.ShortAnswer:
		return gradeShortAnswer(q, raw)
	case model.Matching:
		return gradeMatching(q, raw)
	default:
		return false, fmt.Errorf("%w: question %d has type %q", util.ErrUnknownQuestionType, q.ID, q.Type)
	}
}

// gradeMultipleChoice 选中的选项 id 集合与标记 isCorrect 的集合完全一致才得分
func gradeMultipleChoice(q *model.Question, raw json.RawMessage) (bool, error) {
	var selected []uint
	if err := json.Unmarshal(raw, &selected); err != nil {
		return false, fmt.Errorf("%w: question %d expects a list of option ids", util.ErrInvalidAnswerShape, q.ID)
	}
	if len(selected) == 0 {
		return false, nil
	}

	var correct []uint
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct = append(correct, opt.ID)
		}
	}

	if len(selected) != len(correct) || len(correct) == 0 {
		return false, nil
	}

	sortUints(selected)
	sortUints(correct)
	for i := range correct {
		if selected[i] != correct[i] {
			return false, nil
		}
	}
	return true, nil
}

func gradeTrueFalse(q *model.Question, raw json.RawMessage) (bool, error) {
	var submitted string
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return false, fmt.Errorf("%w: question %d expects a string", util.ErrInvalidAnswerShape, q.ID)
	}
	if q.CorrectAnswer == nil {
		return false, nil
	}
	// 严格区分大小写，只接受 "true"/"false" 字面值
	return submitted == *q.CorrectAnswer, nil
}

func gradeFillBlanks(q *model.Question, raw json.RawMessage) (bool, error) {
	var submitted string
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return false, fmt.Errorf("%w: question %d expects a string", util.ErrInvalidAnswerShape, q.ID)
	}
	if q.CorrectAnswer == nil {
		return false, nil
	}
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(*q.CorrectAnswer)), nil
}

// gradeShortAnswer 标准答案按逗号拆成关键词，至少一半关键词以子串形式
// 出现在答案中才得分。关键词列表为空时永不给分，避免 0/0
func gradeShortAnswer(q *model.Question, raw json.RawMessage) (bool, error) {
	var submitted string
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return false, fmt.Errorf("%w: question %d expects a string", util.ErrInvalidAnswerShape, q.ID)
	}
	if q.CorrectAnswer == nil {
		return false, nil
	}

	var keywords []string
	for _, part := range strings.Split(*q.CorrectAnswer, ",") {
		kw := strings.ToLower(strings.TrimSpace(part))
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return false, nil
	}

	text := strings.ToLower(submitted)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched++
		}
	}

	return float64(matched)/float64(len(keywords)) >= 0.5, nil
}

// gradeMatching 提交的下标对集合与 correctPairs 集合相等才得分，顺序无关
func gradeMatching(q *model.Question, raw json.RawMessage) (bool, error) {
	var submitted [][2]int
	if err := json.Unmarshal(raw, &submitted); err != nil {
		return false, fmt.Errorf("%w: question %d expects a list of index pairs", util.ErrInvalidAnswerShape, q.ID)
	}
	if len(submitted) == 0 {
		return false, nil
	}

	cfg, err := q.MatchingConfig()
	if err != nil {
		return false, err
	}

	if len(submitted) != len(cfg.CorrectPairs) {
		return false, nil
	}

	expected := append([][2]int(nil), cfg.CorrectPairs...)
	actual := append([][2]int(nil), submitted...)
	sortPairs(expected)
	sortPairs(actual)
	for i := range expected {
		if expected[i] != actual[i] {
			return false, nil
		}
	}
	return true, nil
}

func sortUints(s []uint) {
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
}

func sortPairs(s [][2]int) {
	sort.Slice(s, func(i, j int) bool {
		if s[i][0] != s[j][0] {
			return s[i][0] < s[j][0]
		}
		return s[i][1] < s[j][1]
	})
}

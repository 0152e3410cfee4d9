package model

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	FillBlanks     QuestionType = "fill_blanks"
	Matching       QuestionType = "matching"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
)

// Question 题目定义。CorrectAnswer 的含义随题型变化：
// true_false 为 "true"/"false"，fill_blanks 为标准答案文本，
// short_answer 为逗号分隔的关键词列表，multiple_choice 的正确性在 Options 上，
// matching 的配置在 Config 中，essay 无自动判分
// swagger:model Question
type Question struct {
	BaseModel
	TestID        uint             `gorm:"index;type:bigint unsigned" json:"testId"`
	Type          QuestionType     `gorm:"size:50;not null" json:"type"`
	QuestionText  string           `gorm:"type:text;not null" json:"questionText"`
	Points        int              `gorm:"default:1" json:"points"`
	CorrectAnswer *string          `gorm:"type:text" json:"correctAnswer,omitempty"`
	Config        json.RawMessage  `gorm:"type:json" json:"config,omitempty"`
	Order         int              `gorm:"default:0" json:"order"`
	Options       []QuestionOption `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// swagger:model QuestionOption
type QuestionOption struct {
	BaseModel
	QuestionID uint   `gorm:"index;type:bigint unsigned" json:"questionId"`
	OptionText string `gorm:"type:text;not null" json:"optionText"`
	IsCorrect  bool   `gorm:"default:false" json:"isCorrect"`
	Order      int    `gorm:"default:0" json:"order"`
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// MatchingConfig matching 题型的结构化配置，CorrectPairs 为左右列下标对
type MatchingConfig struct {
	LeftColumn   []string `json:"leftColumn"`
	RightColumn  []string `json:"rightColumn"`
	CorrectPairs [][2]int `json:"correctPairs"`
}

// MatchingConfig 解析 matching 题的 Config 字段
func (q *Question) MatchingConfig() (*MatchingConfig, error) {
	if q.Type != Matching {
		return nil, fmt.Errorf("question %d is %s, not matching", q.ID, q.Type)
	}
	var cfg MatchingConfig
	if err := json.Unmarshal(q.Config, &cfg); err != nil {
		return nil, fmt.Errorf("invalid matching config for question %d: %w", q.ID, err)
	}
	return &cfg, nil
}

package service

import (
	"encoding/json"
	"errors"

	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"

	"gorm.io/gorm"
)

type TestService struct {
	TestRepo    *repository.TestRepository
	AttemptRepo *repository.AttemptRepository
}

func NewTestService(testRepo *repository.TestRepository, attemptRepo *repository.AttemptRepository) *TestService {
	return &TestService{
		TestRepo:    testRepo,
		AttemptRepo: attemptRepo,
	}
}

type TestRequest struct {
	CourseID     uint     `json:"courseId" binding:"required"`
	LessonID     *uint    `json:"lessonId"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	PassingScore *float64 `json:"passingScore"`
	TimeLimit    int      `json:"timeLimit"`
}

func (s *TestService) CreateTest(req TestRequest) (*model.Test, error) {
	t := &model.Test{
		CourseID:     req.CourseID,
		LessonID:     req.LessonID,
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: req.PassingScore,
		TimeLimit:    req.TimeLimit,
	}
	if err := s.TestRepo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TestService) GetTest(id uint) (*model.Test, error) {
	t, err := s.TestRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTestNotFound
	}
	return t, err
}

func (s *TestService) UpdateTest(id uint, req TestRequest) (*model.Test, error) {
	t, err := s.GetTest(id)
	if err != nil {
		return nil, err
	}

	t.CourseID = req.CourseID
	t.LessonID = req.LessonID
	t.Title = req.Title
	t.Description = req.Description
	t.PassingScore = req.PassingScore
	t.TimeLimit = req.TimeLimit
	if err := s.TestRepo.Update(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TestService) DeleteTest(id uint) error {
	return s.TestRepo.Delete(id)
}

func (s *TestService) ListTestsByCourse(courseID uint) ([]model.Test, error) {
	return s.TestRepo.ListByCourse(courseID)
}

type QuestionOptionRequest struct {
	OptionText string `json:"optionText" binding:"required"`
	IsCorrect  bool   `json:"isCorrect"`
	Order      int    `json:"order"`
}

type QuestionRequest struct {
	TestID        uint                    `json:"testId" binding:"required"`
	Type          model.QuestionType      `json:"type" binding:"required"`
	QuestionText  string                  `json:"questionText" binding:"required"`
	Points        int                     `json:"points"`
	CorrectAnswer *string                 `json:"correctAnswer"`
	Config        json.RawMessage         `json:"config"`
	Order         int                     `json:"order"`
	Options       []QuestionOptionRequest `json:"options"`
}

func validQuestionType(t model.QuestionType) bool {
	switch t {
	case model.MultipleChoice, model.TrueFalse, model.FillBlanks,
		model.Matching, model.ShortAnswer, model.Essay:
		return true
	}
	return false
}

func (s *TestService) CreateQuestion(req QuestionRequest) (*model.Question, error) {
	if !validQuestionType(req.Type) {
		return nil, util.ErrUnknownQuestionType
	}
	if req.Points <= 0 {
		req.Points = 1
	}

	q := &model.Question{
		TestID:        req.TestID,
		Type:          req.Type,
		QuestionText:  req.QuestionText,
		Points:        req.Points,
		CorrectAnswer: req.CorrectAnswer,
		Config:        req.Config,
		Order:         req.Order,
	}
	if err := s.TestRepo.CreateQuestion(q); err != nil {
		return nil, err
	}

	if req.Type == model.MultipleChoice && len(req.Options) > 0 {
		options := make([]model.QuestionOption, len(req.Options))
		for i, o := range req.Options {
			options[i] = model.QuestionOption{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
				Order:      o.Order,
			}
		}
		if err := s.TestRepo.ReplaceOptions(q.ID, options); err != nil {
			return nil, err
		}
		q.Options = options
	}

	return q, nil
}

func (s *TestService) UpdateQuestion(id uint, req QuestionRequest) (*model.Question, error) {
	if !validQuestionType(req.Type) {
		return nil, util.ErrUnknownQuestionType
	}

	q, err := s.TestRepo.FindQuestionByID(id)
	if err != nil {
		return nil, err
	}

	q.Type = req.Type
	q.QuestionText = req.QuestionText
	if req.Points > 0 {
		q.Points = req.Points
	}
	q.CorrectAnswer = req.CorrectAnswer
	q.Config = req.Config
	q.Order = req.Order
	if err := s.TestRepo.UpdateQuestion(q); err != nil {
		return nil, err
	}

	if req.Type == model.MultipleChoice {
		options := make([]model.QuestionOption, len(req.Options))
		for i, o := range req.Options {
			options[i] = model.QuestionOption{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
				Order:      o.Order,
			}
		}
		if err := s.TestRepo.ReplaceOptions(q.ID, options); err != nil {
			return nil, err
		}
		q.Options = options
	}

	return q, nil
}

func (s *TestService) DeleteQuestion(id uint) error {
	return s.TestRepo.DeleteQuestion(id)
}

func (s *TestService) ListQuestions(testID uint) ([]model.Question, error) {
	return s.TestRepo.ListQuestions(testID)
}

// StudentQuestion 学生端题目视图，不暴露答案与选项正确性
type StudentQuestion struct {
	ID           uint                `json:"id"`
	Type         model.QuestionType  `json:"type"`
	QuestionText string              `json:"questionText"`
	Points       int                 `json:"points"`
	Config       json.RawMessage     `json:"config,omitempty"`
	Order        int                 `json:"order"`
	Options      []StudentOptionView `json:"options,omitempty"`
}

type StudentOptionView struct {
	ID         uint   `json:"id"`
	OptionText string `json:"optionText"`
	Order      int    `json:"order"`
}

func (s *TestService) ListStudentQuestions(testID uint) ([]StudentQuestion, error) {
	qs, err := s.TestRepo.ListQuestions(testID)
	if err != nil {
		return nil, err
	}

	res := make([]StudentQuestion, len(qs))
	for i, q := range qs {
		sq := StudentQuestion{
			ID:           q.ID,
			Type:         q.Type,
			QuestionText: q.QuestionText,
			Points:       q.Points,
			Order:        q.Order,
		}
		// matching 题给学生的 config 去掉答案对
		if q.Type == model.Matching {
			if cfg, err := q.MatchingConfig(); err == nil {
				stripped, _ := json.Marshal(map[string]interface{}{
					"leftColumn":  cfg.LeftColumn,
					"rightColumn": cfg.RightColumn,
				})
				sq.Config = stripped
			}
		}
		for _, o := range q.Options {
			sq.Options = append(sq.Options, StudentOptionView{
				ID:         o.ID,
				OptionText: o.OptionText,
				Order:      o.Order,
			})
		}
		res[i] = sq
	}
	return res, nil
}

type SubmitTestRequest struct {
	Answers map[uint]json.RawMessage `json:"answers" binding:"required"`
}

// SubmitResult 一次提交的判分结论
type SubmitResult struct {
	AttemptID     uint    `json:"attemptId"`
	Score         int     `json:"score"`
	TotalPoints   int     `json:"totalPoints"`
	Percentage    float64 `json:"percentage"`
	IsPassed      bool    `json:"isPassed"`
	PendingReview bool    `json:"pendingReview"`
}

// SubmitTest 判分并追加一条答题记录。判分校验失败时不落任何记录；
// 含 essay 题的提交标记为待人工评阅
func (s *TestService) SubmitTest(userID, testID uint, req SubmitTestRequest) (*SubmitResult, error) {
	test, err := s.GetTest(testID)
	if err != nil {
		return nil, err
	}

	questions, err := s.TestRepo.ListQuestions(testID)
	if err != nil {
		return nil, err
	}

	graded, err := GradeAnswers(questions, req.Answers)
	if err != nil {
		return nil, err
	}

	percentage := 0.0
	if graded.TotalPoints > 0 {
		percentage = float64(graded.Score) / float64(graded.TotalPoints) * 100
	}

	isPassed := false
	if !graded.HasEssay && test.PassingScore != nil && percentage >= *test.PassingScore {
		isPassed = true
	}

	answersJSON, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, err
	}

	attempt := &model.TestAttempt{
		TestID:        testID,
		UserID:        userID,
		Answers:       answersJSON,
		Score:         graded.Score,
		TotalPoints:   graded.TotalPoints,
		IsPassed:      isPassed,
		PendingReview: graded.HasEssay,
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		return nil, err
	}

	return &SubmitResult{
		AttemptID:     attempt.ID,
		Score:         attempt.Score,
		TotalPoints:   attempt.TotalPoints,
		Percentage:    percentage,
		IsPassed:      isPassed,
		PendingReview: graded.HasEssay,
	}, nil
}

// AttemptView 单次作答展示，百分比按该次作答自己的总分换算
type AttemptView struct {
	ID            uint    `json:"id"`
	Score         int     `json:"score"`
	TotalPoints   int     `json:"totalPoints"`
	Percentage    float64 `json:"percentage"`
	IsPassed      bool    `json:"isPassed"`
	PendingReview bool    `json:"pendingReview"`
	CreatedAt     string  `json:"createdAt"`
}

// AttemptSummary 历次作答汇总
type AttemptSummary struct {
	Attempts []AttemptView `json:"attempts"`
	Best     *AttemptView  `json:"best,omitempty"`
	Worst    *AttemptView  `json:"worst,omitempty"`
}

// ListAttempts 教师分页查看某测验的全部作答
func (s *TestService) ListAttempts(testID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	return s.AttemptRepo.ListByTest(testID, page, limit)
}

func (s *TestService) GetMyResults(userID, testID uint) (*AttemptSummary, error) {
	attempts, err := s.AttemptRepo.ListByUserAndTest(userID, testID)
	if err != nil {
		return nil, err
	}
	return SummarizeAttempts(attempts), nil
}

// SummarizeAttempts 派生 best/worst（按得分），不落库。
// 题目后续增删不影响历史百分比，换算只用记录内的 TotalPoints
func SummarizeAttempts(attempts []model.TestAttempt) *AttemptSummary {
	summary := &AttemptSummary{Attempts: make([]AttemptView, len(attempts))}

	bestIdx, worstIdx := -1, -1
	for i, a := range attempts {
		summary.Attempts[i] = AttemptView{
			ID:            a.ID,
			Score:         a.Score,
			TotalPoints:   a.TotalPoints,
			Percentage:    a.Percentage(),
			IsPassed:      a.IsPassed,
			PendingReview: a.PendingReview,
			CreatedAt:     a.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if bestIdx < 0 || a.Score > attempts[bestIdx].Score {
			bestIdx = i
		}
		if worstIdx < 0 || a.Score < attempts[worstIdx].Score {
			worstIdx = i
		}
	}

	if bestIdx >= 0 {
		summary.Best = &summary.Attempts[bestIdx]
		summary.Worst = &summary.Attempts[worstIdx]
	}
	return summary
}

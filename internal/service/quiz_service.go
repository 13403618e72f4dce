package service

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"
	"training_hub_backend/pkg/monitoring"

	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.AttemptRepository
	LessonRepo  *repository.LessonRepository
	Progress    *ProgressService
	DB          *gorm.DB
}

func NewQuizService(
	quizRepo *repository.QuizRepository,
	attemptRepo *repository.AttemptRepository,
	lessonRepo *repository.LessonRepository,
	progress *ProgressService,
	db *gorm.DB,
) *QuizService {
	return &QuizService{
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		LessonRepo:  lessonRepo,
		Progress:    progress,
		DB:          db,
	}
}

// AnswerSubmission 一道题的作答，选择题可以有多个值
type AnswerSubmission struct {
	QuestionID uint     `json:"questionId" binding:"required"`
	Values     []string `json:"values"`
}

// QuestionResult 存入 QuizAttempt.Answers 的逐题判定
type QuestionResult struct {
	QuestionID uint     `json:"questionId"`
	Values     []string `json:"values"`
	IsCorrect  bool     `json:"isCorrect"`
}

// GradeResult 判分结果，纯函数输出，同样输入永远得到同样结果
type GradeResult struct {
	Score          int           `json:"score"`
	Passed         bool          `json:"passed"`
	CorrectCount   int           `json:"correctAnswers"`
	TotalQuestions int           `json:"totalQuestions"`
	PerQuestion    map[uint]bool `json:"-"`
}

// Grade 按题型比对作答并计算百分制得分
//
// 规则：未作答算错；提交里未知的题目 ID 忽略；同一题提交多次以最后一次为准。
// 空测验无法判分，返回 ErrQuizHasNoQuestions。
func (s *QuizService) Grade(quiz *model.Quiz, answers []AnswerSubmission) (*GradeResult, error) {
	if len(quiz.Questions) == 0 {
		return nil, util.ErrQuizHasNoQuestions
	}

	submitted := make(map[uint][]string, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.Values
	}

	result := &GradeResult{
		TotalQuestions: len(quiz.Questions),
		PerQuestion:    make(map[uint]bool, len(quiz.Questions)),
	}

	for _, q := range quiz.Questions {
		correct := answerMatches(&q, submitted[q.ID])
		result.PerQuestion[q.ID] = correct
		if correct {
			result.CorrectCount++
		}
	}

	result.Score = int(math.Round(float64(result.CorrectCount) / float64(result.TotalQuestions) * 100))
	result.Passed = result.Score >= quiz.PassingScore
	return result, nil
}

func answerMatches(q *model.QuizQuestion, values []string) bool {
	correct := q.CorrectList()

	if q.QuestionType == model.MultipleChoice {
		// 多选题按集合比较，顺序无关，多选或漏选都算错
		if len(values) == 0 || len(values) != len(correct) {
			return false
		}
		a := normalizeAll(values)
		b := normalizeAll(correct)
		sort.Strings(a)
		sort.Strings(b)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	// 单选、判断、填空：忽略大小写和首尾空格的字符串比较
	if len(values) == 0 || len(correct) == 0 {
		return false
	}
	return normalize(values[0]) == normalize(correct[0])
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = normalize(s)
	}
	return out
}

// SubmitResult 提交测验后返回给前端的结果
type SubmitResult struct {
	Score          int  `json:"score"`
	Passed         bool `json:"passed"`
	CorrectAnswers int  `json:"correctAnswers"`
	TotalQuestions int  `json:"totalQuestions"`
	PassingScore   int  `json:"passingScore"`
	AttemptNumber  int  `json:"attemptNumber"`
}

// Submit 判分并落库：追加一条不可变的答题记录，再同步更新课时与课程进度。
// 写入都在一个事务里，失败时不留下半更新状态。
func (s *QuizService) Submit(userID, lessonID uint, answers []AnswerSubmission) (*SubmitResult, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	quiz, err := s.QuizRepo.FindByLessonID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	verdict, err := s.Grade(quiz, answers)
	if err != nil {
		return nil, err
	}

	results := make([]QuestionResult, 0, len(quiz.Questions))
	submitted := make(map[uint][]string, len(answers))
	for _, a := range answers {
		submitted[a.QuestionID] = a.Values
	}
	for _, q := range quiz.Questions {
		results = append(results, QuestionResult{
			QuestionID: q.ID,
			Values:     submitted[q.ID],
			IsCorrect:  verdict.PerQuestion[q.ID],
		})
	}
	answersJSON, err := json.Marshal(results)
	if err != nil {
		return nil, err
	}

	attempt := model.QuizAttempt{
		UserID:      userID,
		QuizID:      quiz.ID,
		Score:       verdict.Score,
		Passed:      verdict.Passed,
		Answers:     answersJSON,
		SubmittedAt: time.Now(),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		prior, err := s.AttemptRepo.WithTx(tx).CountByUserAndQuiz(userID, quiz.ID)
		if err != nil {
			return err
		}
		attempt.AttemptNumber = int(prior) + 1

		if err := s.AttemptRepo.WithTx(tx).Create(&attempt); err != nil {
			return err
		}

		return s.Progress.RecordQuizResult(tx, userID, lesson, &attempt)
	})
	if err != nil {
		return nil, err
	}

	monitoring.QuizSubmissions.WithLabelValues(strconv.FormatBool(verdict.Passed)).Inc()

	return &SubmitResult{
		Score:          verdict.Score,
		Passed:         verdict.Passed,
		CorrectAnswers: verdict.CorrectCount,
		TotalQuestions: verdict.TotalQuestions,
		PassingScore:   quiz.PassingScore,
		AttemptNumber:  attempt.AttemptNumber,
	}, nil
}

// QuizView 答题视图，不含正确答案
type QuizView struct {
	ID               uint               `json:"id"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	PassingScore     int                `json:"passingScore"`
	TimeLimitMinutes int                `json:"timeLimitMinutes"`
	Questions        []QuizQuestionView `json:"questions"`
}

type QuizQuestionView struct {
	ID           uint               `json:"id"`
	QuestionText string             `json:"questionText"`
	QuestionType model.QuestionType `json:"questionType"`
	Options      []string           `json:"options"`
	OrderIndex   int                `json:"orderIndex"`
}

// GetForTaking 取课时测验供答题，正确答案一律剥离
func (s *QuizService) GetForTaking(lessonID uint) (*QuizView, error) {
	quiz, err := s.QuizRepo.FindByLessonID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	view := &QuizView{
		ID:               quiz.ID,
		Title:            quiz.Title,
		Description:      quiz.Description,
		PassingScore:     quiz.PassingScore,
		TimeLimitMinutes: quiz.TimeLimitMinutes,
		Questions:        make([]QuizQuestionView, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		view.Questions = append(view.Questions, QuizQuestionView{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.OptionList(),
			OrderIndex:   q.OrderIndex,
		})
	}
	return view, nil
}

func (s *QuizService) ListAttempts(userID, quizID uint) ([]model.QuizAttempt, error) {
	return s.AttemptRepo.ListByUserAndQuiz(userID, quizID)
}

// CreateQuizRequest 管理端创建测验
type CreateQuizRequest struct {
	LessonID         uint   `json:"lessonId" binding:"required"`
	Title            string `json:"title" binding:"required,max=200"`
	Description      string `json:"description" binding:"max=1000"`
	PassingScore     int    `json:"passingScore" binding:"min=0,max=100"`
	TimeLimitMinutes int    `json:"timeLimitMinutes" binding:"min=0"`
}

// CreateQuiz 创建课时测验并把课时标记为需要通过测验才能完成
func (s *QuizService) CreateQuiz(req CreateQuizRequest) (*model.Quiz, error) {
	lesson, err := s.LessonRepo.FindByID(req.LessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	quiz := &model.Quiz{
		LessonID:         req.LessonID,
		Title:            req.Title,
		Description:      req.Description,
		PassingScore:     req.PassingScore,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if quiz.PassingScore == 0 {
		quiz.PassingScore = 80
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		lesson.HasQuiz = true
		return tx.Save(lesson).Error
	})
	if err != nil {
		return nil, err
	}
	return quiz, nil
}

// UpdateQuizRequest 管理端修改测验
type UpdateQuizRequest struct {
	Title            string `json:"title" binding:"required,max=200"`
	Description      string `json:"description" binding:"max=1000"`
	PassingScore     int    `json:"passingScore" binding:"min=0,max=100"`
	TimeLimitMinutes int    `json:"timeLimitMinutes" binding:"min=0"`
}

func (s *QuizService) UpdateQuiz(id uint, req UpdateQuizRequest) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	quiz.Title = req.Title
	quiz.Description = req.Description
	quiz.PassingScore = req.PassingScore
	quiz.TimeLimitMinutes = req.TimeLimitMinutes

	if err := s.QuizRepo.Save(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz 删除测验并恢复课时的直接完成方式
func (s *QuizService) DeleteQuiz(id uint) error {
	quiz, err := s.QuizRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrQuizNotFound
		}
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Quiz{}, quiz.ID).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quiz.ID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Lesson{}).Where("id = ?", quiz.LessonID).
			Update("has_quiz", false).Error
	})
}

// QuestionRequest 管理端创建/修改题目
type QuestionRequest struct {
	QuestionText   string             `json:"questionText" binding:"required"`
	QuestionType   model.QuestionType `json:"questionType" binding:"required,oneof=single_choice multiple_choice true_false text"`
	Options        []string           `json:"options"`
	CorrectAnswers []string           `json:"correctAnswers" binding:"required,min=1"`
	Explanation    string             `json:"explanation" binding:"max=1000"`
	OrderIndex     int                `json:"orderIndex" binding:"min=0"`
}

// AddQuestion 给测验添加题目，order_index 在测验内必须唯一
func (s *QuizService) AddQuestion(quizID uint, req QuestionRequest) (*model.QuizQuestion, error) {
	if _, err := s.QuizRepo.FindByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	taken, err := s.QuizRepo.QuestionOrderTaken(quizID, req.OrderIndex, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateOrderIndex
	}

	question := &model.QuizQuestion{
		QuizID:         quizID,
		QuestionText:   req.QuestionText,
		QuestionType:   req.QuestionType,
		Options:        model.EncodeStringList(req.Options),
		CorrectAnswers: model.EncodeStringList(req.CorrectAnswers),
		Explanation:    req.Explanation,
		OrderIndex:     req.OrderIndex,
	}
	if err := s.QuizRepo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) UpdateQuestion(id uint, req QuestionRequest) (*model.QuizQuestion, error) {
	question, err := s.QuizRepo.FindQuestionByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	taken, err := s.QuizRepo.QuestionOrderTaken(question.QuizID, req.OrderIndex, question.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateOrderIndex
	}

	question.QuestionText = req.QuestionText
	question.QuestionType = req.QuestionType
	question.Options = model.EncodeStringList(req.Options)
	question.CorrectAnswers = model.EncodeStringList(req.CorrectAnswers)
	question.Explanation = req.Explanation
	question.OrderIndex = req.OrderIndex

	if err := s.QuizRepo.SaveQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) DeleteQuestion(id uint) error {
	return s.QuizRepo.DeleteQuestion(id)
}

package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	TextAnswer     QuestionType = "text"
)

// Quiz 课时测验，每个课时最多一个测验
// swagger:model Quiz
type Quiz struct {
	BaseModel
	LessonID         uint           `gorm:"uniqueIndex;not null" json:"lessonId"`
	Title            string         `gorm:"size:200;not null" json:"title"`
	Description      string         `gorm:"size:1000" json:"description"`
	PassingScore     int            `gorm:"default:80" json:"passingScore"`
	TimeLimitMinutes int            `gorm:"default:0" json:"timeLimitMinutes"`
	Questions        []QuizQuestion `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "lesson_quizzes"
}

// QuizQuestion 测验题目，OrderIndex 在测验内唯一
// swagger:model QuizQuestion
type QuizQuestion struct {
	BaseModel
	QuizID         uint           `gorm:"index:idx_quiz_order,unique;not null" json:"quizId"`
	QuestionText   string         `gorm:"type:text;not null" json:"questionText"`
	QuestionType   QuestionType   `gorm:"size:20;not null" json:"questionType"`
	Options        datatypes.JSON `json:"options"`
	CorrectAnswers datatypes.JSON `json:"-"`
	Explanation    string         `gorm:"size:1000" json:"explanation,omitempty"`
	OrderIndex     int            `gorm:"index:idx_quiz_order,unique;not null" json:"orderIndex"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// OptionList 反序列化选项列表，字段为空时返回 nil
func (q *QuizQuestion) OptionList() []string {
	return decodeStringList(q.Options)
}

// CorrectList 反序列化正确答案列表
func (q *QuizQuestion) CorrectList() []string {
	return decodeStringList(q.CorrectAnswers)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	return list
}

func EncodeStringList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	raw, _ := json.Marshal(list)
	return datatypes.JSON(raw)
}

// QuizAttempt 一次判分记录，只追加，从不覆盖历史记录
// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel
	UserID        uint           `gorm:"index:idx_user_quiz;not null" json:"userId"`
	QuizID        uint           `gorm:"index:idx_user_quiz;not null" json:"quizId"`
	AttemptNumber int            `gorm:"not null" json:"attemptNumber"`
	Score         int            `gorm:"not null" json:"score"`
	Passed        bool           `gorm:"not null" json:"passed"`
	Answers       datatypes.JSON `json:"answers"`
	SubmittedAt   time.Time      `json:"submittedAt"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

package service

import (
	"testing"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(id uint, qType model.QuestionType, correct ...string) model.QuizQuestion {
	q := model.QuizQuestion{
		QuestionType:   qType,
		CorrectAnswers: model.EncodeStringList(correct),
	}
	q.ID = id
	return q
}

func fourQuestionQuiz() *model.Quiz {
	return &model.Quiz{
		PassingScore: 80,
		Questions: []model.QuizQuestion{
			question(1, model.SingleChoice, "b"),
			question(2, model.MultipleChoice, "a", "c"),
			question(3, model.TrueFalse, "true"),
			question(4, model.TextAnswer, "goroutine"),
		},
	}
}

func TestGradeAllCorrect(t *testing.T) {
	s := &QuizService{}

	result, err := s.Grade(fourQuestionQuiz(), []AnswerSubmission{
		{QuestionID: 1, Values: []string{"b"}},
		{QuestionID: 2, Values: []string{"c", "a"}},
		{QuestionID: 3, Values: []string{"true"}},
		{QuestionID: 4, Values: []string{"  Goroutine "}},
	})

	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 4, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
}

func TestGradeFailsBelowPassingScore(t *testing.T) {
	s := &QuizService{}

	// 3/4 = 75 分，及格线 80
	result, err := s.Grade(fourQuestionQuiz(), []AnswerSubmission{
		{QuestionID: 1, Values: []string{"b"}},
		{QuestionID: 2, Values: []string{"a", "c"}},
		{QuestionID: 3, Values: []string{"false"}},
		{QuestionID: 4, Values: []string{"goroutine"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 75, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 3, result.CorrectCount)
}

func TestGradeMultipleChoice(t *testing.T) {
	s := &QuizService{}
	quiz := &model.Quiz{
		PassingScore: 80,
		Questions: []model.QuizQuestion{
			question(1, model.MultipleChoice, "a", "b", "c"),
		},
	}

	cases := []struct {
		name    string
		values  []string
		correct bool
	}{
		{"顺序无关", []string{"c", "a", "b"}, true},
		{"忽略大小写和空格", []string{" A", "b ", "C"}, true},
		{"漏选", []string{"a", "b"}, false},
		{"多选", []string{"a", "b", "c", "d"}, false},
		{"未作答", nil, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.Grade(quiz, []AnswerSubmission{{QuestionID: 1, Values: tc.values}})
			require.NoError(t, err)
			assert.Equal(t, tc.correct, result.PerQuestion[1])
		})
	}
}

func TestGradeMissingAndUnknownAnswers(t *testing.T) {
	s := &QuizService{}

	// 只答一题，另带一个不存在的题目 ID
	result, err := s.Grade(fourQuestionQuiz(), []AnswerSubmission{
		{QuestionID: 1, Values: []string{"b"}},
		{QuestionID: 99, Values: []string{"whatever"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 25, result.Score)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 4, result.TotalQuestions)
}

func TestGradeDuplicateSubmissionLastWins(t *testing.T) {
	s := &QuizService{}
	quiz := &model.Quiz{
		PassingScore: 80,
		Questions: []model.QuizQuestion{
			question(1, model.SingleChoice, "b"),
		},
	}

	result, err := s.Grade(quiz, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"a"}},
		{QuestionID: 1, Values: []string{"b"}},
	})

	require.NoError(t, err)
	assert.True(t, result.PerQuestion[1])
	assert.Equal(t, 100, result.Score)
}

func TestGradeEmptyQuiz(t *testing.T) {
	s := &QuizService{}

	_, err := s.Grade(&model.Quiz{PassingScore: 80}, nil)
	assert.ErrorIs(t, err, util.ErrQuizHasNoQuestions)
}

func TestGradeDeterministic(t *testing.T) {
	s := &QuizService{}
	answers := []AnswerSubmission{
		{QuestionID: 1, Values: []string{"b"}},
		{QuestionID: 2, Values: []string{"a", "c"}},
	}

	first, err := s.Grade(fourQuestionQuiz(), answers)
	require.NoError(t, err)
	second, err := s.Grade(fourQuestionQuiz(), answers)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, first.PerQuestion, second.PerQuestion)
}

func TestGradeRounding(t *testing.T) {
	s := &QuizService{}
	quiz := &model.Quiz{
		PassingScore: 80,
		Questions: []model.QuizQuestion{
			question(1, model.SingleChoice, "a"),
			question(2, model.SingleChoice, "a"),
			question(3, model.SingleChoice, "a"),
		},
	}

	// 1/3 = 33.33 -> 33, 2/3 = 66.67 -> 67
	result, err := s.Grade(quiz, []AnswerSubmission{{QuestionID: 1, Values: []string{"a"}}})
	require.NoError(t, err)
	assert.Equal(t, 33, result.Score)

	result, err = s.Grade(quiz, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"a"}},
		{QuestionID: 2, Values: []string{"a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, result.Score)
}

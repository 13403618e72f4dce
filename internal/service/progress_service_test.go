package service

import (
	"testing"
	"time"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"
	"training_hub_backend/pkg/database"
	"training_hub_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Log = zap.NewNop()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newProgressService(db *gorm.DB) *ProgressService {
	return NewProgressService(
		repository.NewLessonRepository(db),
		repository.NewProgressRepository(db),
		db,
	)
}

func newCourseService(db *gorm.DB) *CourseService {
	return NewCourseService(
		repository.NewCourseRepository(db),
		repository.NewLessonRepository(db),
		&StorageService{},
		newProgressService(db),
		db,
	)
}

func newQuizService(db *gorm.DB) *QuizService {
	return NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewAttemptRepository(db),
		repository.NewLessonRepository(db),
		newProgressService(db),
		db,
	)
}

func seedCourse(t *testing.T, db *gorm.DB, lessonCount int) (*model.Course, []model.Lesson) {
	t.Helper()
	course := &model.Course{Title: "Go 入门", IsPublished: true}
	require.NoError(t, db.Create(course).Error)

	lessons := make([]model.Lesson, lessonCount)
	for i := range lessons {
		lessons[i] = model.Lesson{
			CourseID:   course.ID,
			Title:      "第" + string(rune('一'+i)) + "课",
			OrderIndex: i + 1,
		}
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return course, lessons
}

func seedQuiz(t *testing.T, db *gorm.DB, lesson *model.Lesson, passingScore int) *model.Quiz {
	t.Helper()
	quiz := &model.Quiz{LessonID: lesson.ID, Title: "随堂测验", PassingScore: passingScore}
	require.NoError(t, db.Create(quiz).Error)

	questions := []model.QuizQuestion{
		{QuizID: quiz.ID, QuestionText: "Q1", QuestionType: model.SingleChoice,
			CorrectAnswers: model.EncodeStringList([]string{"a"}), OrderIndex: 1},
		{QuizID: quiz.ID, QuestionText: "Q2", QuestionType: model.TrueFalse,
			CorrectAnswers: model.EncodeStringList([]string{"true"}), OrderIndex: 2},
	}
	for i := range questions {
		require.NoError(t, db.Create(&questions[i]).Error)
	}

	lesson.HasQuiz = true
	require.NoError(t, db.Save(lesson).Error)
	return quiz
}

func TestCompleteLessonDirect(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course, lessons := seedCourse(t, db, 2)

	progress, err := s.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.CompletedAt)

	view, err := s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, view.Course.ProgressPercentage)
	assert.Equal(t, 1, view.Course.LessonsCompleted)
	assert.Equal(t, 2, view.Course.TotalLessons)
	assert.False(t, view.Course.IsCompleted)
}

func TestCompleteLessonDirectIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	_, lessons := seedCourse(t, db, 2)

	first, err := s.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)
	firstCompletedAt := *first.CompletedAt

	second, err := s.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)
	assert.True(t, second.IsCompleted)
	assert.Equal(t, firstCompletedAt.Unix(), second.CompletedAt.Unix())

	var count int64
	require.NoError(t, db.Model(&model.LessonProgress{}).
		Where("user_id = ? AND lesson_id = ?", 1, lessons[0].ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCompleteLessonDirectRejectsQuizLesson(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	_, lessons := seedCourse(t, db, 1)
	seedQuiz(t, db, &lessons[0], 80)

	_, err := s.CompleteLessonDirect(1, lessons[0].ID)
	assert.ErrorIs(t, err, util.ErrQuizRequired)
}

func TestCompleteLessonDirectUnknownLesson(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)

	_, err := s.CompleteLessonDirect(1, 999)
	assert.ErrorIs(t, err, util.ErrLessonNotFound)
}

func TestSubmitPassCompletesLesson(t *testing.T) {
	db := newTestDB(t)
	quizService := newQuizService(db)
	course, lessons := seedCourse(t, db, 1)
	seedQuiz(t, db, &lessons[0], 80)

	result, err := quizService.Submit(1, lessons[0].ID, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"a"}},
		{QuestionID: 2, Values: []string{"true"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 1, result.AttemptNumber)

	var progress model.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 1, lessons[0].ID).
		First(&progress).Error)
	assert.True(t, progress.IsCompleted)
	require.NotNil(t, progress.QuizScore)
	assert.Equal(t, 100, *progress.QuizScore)

	var courseProgress model.CourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", 1, course.ID).
		First(&courseProgress).Error)
	assert.Equal(t, 100, courseProgress.ProgressPercentage)
	assert.True(t, courseProgress.IsCompleted)
}

func TestSubmitCompletionIsMonotonic(t *testing.T) {
	db := newTestDB(t)
	quizService := newQuizService(db)
	_, lessons := seedCourse(t, db, 1)
	seedQuiz(t, db, &lessons[0], 80)

	// 先通过
	_, err := quizService.Submit(1, lessons[0].ID, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"a"}},
		{QuestionID: 2, Values: []string{"true"}},
	})
	require.NoError(t, err)

	// 再提交一次不及格的答卷
	result, err := quizService.Submit(1, lessons[0].ID, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"wrong"}},
	})
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Equal(t, 2, result.AttemptNumber)

	var progress model.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", 1, lessons[0].ID).
		First(&progress).Error)
	assert.True(t, progress.IsCompleted, "failing attempt must not un-complete the lesson")
	require.NotNil(t, progress.QuizScore)
	assert.Equal(t, 0, *progress.QuizScore, "quiz score tracks the latest attempt")
	assert.Equal(t, 2, progress.QuizAttempts)

	// 历史记录只追加
	var attempts []model.QuizAttempt
	require.NoError(t, db.Where("user_id = ?", 1).Order("attempt_number").Find(&attempts).Error)
	require.Len(t, attempts, 2)
	assert.Equal(t, 100, attempts[0].Score)
	assert.Equal(t, 0, attempts[1].Score)
}

func TestSubmitWithoutQuiz(t *testing.T) {
	db := newTestDB(t)
	quizService := newQuizService(db)
	_, lessons := seedCourse(t, db, 1)

	_, err := quizService.Submit(1, lessons[0].ID, nil)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestCourseProgressPercentage(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course, lessons := seedCourse(t, db, 5)

	for i := 0; i < 3; i++ {
		_, err := s.CompleteLessonDirect(1, lessons[i].ID)
		require.NoError(t, err)
	}

	view, err := s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, view.Course.ProgressPercentage)
	assert.False(t, view.Course.IsCompleted)
	assert.Nil(t, view.Course.CompletedAt)
}

func TestCourseCompletedAtSetOnceAndPreserved(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course, lessons := seedCourse(t, db, 2)

	for i := range lessons {
		_, err := s.CompleteLessonDirect(1, lessons[i].ID)
		require.NoError(t, err)
	}

	view, err := s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.True(t, view.Course.IsCompleted)
	require.NotNil(t, view.Course.CompletedAt)
	completedAt := *view.Course.CompletedAt

	time.Sleep(10 * time.Millisecond)
	_, err = s.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)

	view, err = s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completedAt.UnixNano(), view.Course.CompletedAt.UnixNano(),
		"recompute must not overwrite the original completion time")
}

func TestCourseCompletionRegressesWhenLessonAdded(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course, lessons := seedCourse(t, db, 2)

	for i := range lessons {
		_, err := s.CompleteLessonDirect(1, lessons[i].ID)
		require.NoError(t, err)
	}

	// 课程完成后又追加了新课时
	extra := model.Lesson{CourseID: course.ID, Title: "新增课时", OrderIndex: 3}
	require.NoError(t, db.Create(&extra).Error)
	newer := model.Lesson{CourseID: course.ID, Title: "再加一个", OrderIndex: 4}
	require.NoError(t, db.Create(&newer).Error)

	_, err := s.CompleteLessonDirect(1, extra.ID)
	require.NoError(t, err)

	view, err := s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 75, view.Course.ProgressPercentage)
	assert.False(t, view.Course.IsCompleted)
	assert.Nil(t, view.Course.CompletedAt)
}

func TestCourseMixesQuizAndDirectCompletion(t *testing.T) {
	db := newTestDB(t)
	progressService := newProgressService(db)
	quizService := newQuizService(db)
	course, lessons := seedCourse(t, db, 2)
	seedQuiz(t, db, &lessons[0], 70)

	result, err := quizService.Submit(1, lessons[0].ID, []AnswerSubmission{
		{QuestionID: 1, Values: []string{"a"}},
		{QuestionID: 2, Values: []string{"true"}},
	})
	require.NoError(t, err)
	require.True(t, result.Passed)

	_, err = progressService.CompleteLessonDirect(1, lessons[1].ID)
	require.NoError(t, err)

	view, err := progressService.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, view.Course.ProgressPercentage)
	assert.True(t, view.Course.IsCompleted)
	require.NotNil(t, view.Course.CompletedAt)
}

func TestGetCourseProgressWithoutRecord(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course, _ := seedCourse(t, db, 3)

	view, err := s.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Course.ProgressPercentage)
	assert.False(t, view.Course.IsCompleted)
	assert.Equal(t, 3, view.Course.TotalLessons)
	assert.Empty(t, view.Lessons)
}

func TestLessonDeletionRecomputesCourseProgress(t *testing.T) {
	db := newTestDB(t)
	progressService := newProgressService(db)
	courseService := newCourseService(db)
	course, lessons := seedCourse(t, db, 2)

	for i := range lessons {
		_, err := progressService.CompleteLessonDirect(1, lessons[i].ID)
		require.NoError(t, err)
	}

	require.NoError(t, courseService.DeleteLesson(lessons[1].ID))

	view, err := progressService.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.LessOrEqual(t, view.Course.ProgressPercentage, 100)
	assert.Equal(t, 100, view.Course.ProgressPercentage)
	assert.Equal(t, 1, view.Course.LessonsCompleted)
	assert.Equal(t, 1, view.Course.TotalLessons)
	assert.True(t, view.Course.IsCompleted)

	// 已删除课时的进度记录不再出现在课时明细里
	require.Len(t, view.Lessons, 1)
	assert.Equal(t, lessons[0].ID, view.Lessons[0].LessonID)
}

func TestLessonDeletionDropsOrphanedCompletion(t *testing.T) {
	db := newTestDB(t)
	progressService := newProgressService(db)
	courseService := newCourseService(db)
	course, lessons := seedCourse(t, db, 2)

	// 只完成了后来被删掉的那个课时
	_, err := progressService.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)

	require.NoError(t, courseService.DeleteLesson(lessons[0].ID))

	view, err := progressService.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Course.ProgressPercentage)
	assert.Equal(t, 0, view.Course.LessonsCompleted)
	assert.Equal(t, 1, view.Course.TotalLessons)
	assert.False(t, view.Course.IsCompleted)
	assert.Nil(t, view.Course.CompletedAt)
}

func TestLessonCreationRegressesCompletedCourse(t *testing.T) {
	db := newTestDB(t)
	progressService := newProgressService(db)
	courseService := newCourseService(db)
	course, lessons := seedCourse(t, db, 1)

	_, err := progressService.CompleteLessonDirect(1, lessons[0].ID)
	require.NoError(t, err)

	_, err = courseService.CreateLesson(LessonRequest{
		CourseID:        course.ID,
		Title:           "新增课时",
		Content:         "content",
		OrderIndex:      2,
		DurationMinutes: 10,
	})
	require.NoError(t, err)

	view, err := progressService.GetCourseProgress(1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, view.Course.ProgressPercentage)
	assert.False(t, view.Course.IsCompleted)
	assert.Nil(t, view.Course.CompletedAt)
}

func TestZeroLessonCourseNeverCompletes(t *testing.T) {
	db := newTestDB(t)
	s := newProgressService(db)
	course := &model.Course{Title: "空课程", IsPublished: true}
	require.NoError(t, db.Create(course).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return s.RecomputeCourseProgress(tx, 1, course.ID)
	}))

	var progress model.CourseProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", 1, course.ID).
		First(&progress).Error)
	assert.Equal(t, 0, progress.ProgressPercentage)
	assert.False(t, progress.IsCompleted)
	assert.Nil(t, progress.CompletedAt)
}

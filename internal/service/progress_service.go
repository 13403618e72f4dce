package service

import (
	"errors"
	"math"
	"time"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"
	"training_hub_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProgressService struct {
	LessonRepo   *repository.LessonRepository
	ProgressRepo *repository.ProgressRepository
	DB           *gorm.DB
}

func NewProgressService(
	lessonRepo *repository.LessonRepository,
	progressRepo *repository.ProgressRepository,
	db *gorm.DB,
) *ProgressService {
	return &ProgressService{
		LessonRepo:   lessonRepo,
		ProgressRepo: progressRepo,
		DB:           db,
	}
}

// CompleteLessonDirect 直接标记课时完成，带测验的课时只能通过测验完成。
// 重复调用是幂等的。
func (s *ProgressService) CompleteLessonDirect(userID, lessonID uint) (*model.LessonProgress, error) {
	lesson, err := s.LessonRepo.FindByID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	if lesson.HasQuiz {
		return nil, util.ErrQuizRequired
	}

	var progress *model.LessonProgress
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.ProgressRepo.WithTx(tx)

		progress, err = repo.FindLessonProgress(userID, lessonID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			progress = &model.LessonProgress{
				UserID:   userID,
				LessonID: lessonID,
				CourseID: lesson.CourseID,
			}
		} else if err != nil {
			return err
		}

		if !progress.IsCompleted {
			now := time.Now()
			progress.IsCompleted = true
			progress.CompletedAt = &now
		}
		if err := repo.SaveLessonProgress(progress); err != nil {
			return err
		}

		return s.RecomputeCourseProgress(tx, userID, lesson.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// RecordQuizResult 把一次判分结果写进课时进度，在调用方的事务里执行。
// 完成状态是单调的：通过后再次提交失败的答卷不会把课时改回未完成。
func (s *ProgressService) RecordQuizResult(tx *gorm.DB, userID uint, lesson *model.Lesson, attempt *model.QuizAttempt) error {
	repo := s.ProgressRepo.WithTx(tx)

	progress, err := repo.FindLessonProgress(userID, lesson.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.LessonProgress{
			UserID:   userID,
			LessonID: lesson.ID,
			CourseID: lesson.CourseID,
		}
	} else if err != nil {
		return err
	}

	score := attempt.Score
	progress.QuizScore = &score
	progress.QuizAttempts = attempt.AttemptNumber

	if attempt.Passed && !progress.IsCompleted {
		now := time.Now()
		progress.IsCompleted = true
		progress.CompletedAt = &now
	}

	if err := repo.SaveLessonProgress(progress); err != nil {
		return err
	}

	return s.RecomputeCourseProgress(tx, userID, lesson.CourseID)
}

// RecomputeCourseProgress 从课时进度全量重算课程进度并覆盖写入。
// 同样的课时进度重算多少次结果都一样；completed_at 只在首次完成时写入，
// 之后的重算不再覆盖。
func (s *ProgressService) RecomputeCourseProgress(tx *gorm.DB, userID, courseID uint) error {
	repo := s.ProgressRepo.WithTx(tx)

	total, err := s.LessonRepo.WithTx(tx).CountByCourse(courseID)
	if err != nil {
		return err
	}
	completed, err := repo.CountCompletedLessons(userID, courseID)
	if err != nil {
		return err
	}

	percentage := 0
	if total > 0 {
		percentage = int(math.Round(float64(completed) / float64(total) * 100))
	}
	isCompleted := total > 0 && completed == total

	progress, err := repo.FindCourseProgress(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = &model.CourseProgress{
			UserID:   userID,
			CourseID: courseID,
		}
	} else if err != nil {
		return err
	}

	progress.ProgressPercentage = percentage
	progress.LessonsCompleted = int(completed)
	progress.TotalLessons = int(total)
	progress.IsCompleted = isCompleted

	switch {
	case isCompleted && progress.CompletedAt == nil:
		now := time.Now()
		progress.CompletedAt = &now
	case !isCompleted:
		// 课程加了新课时后完成状态可能回退，一并清掉时间戳
		progress.CompletedAt = nil
	}

	if err := repo.SaveCourseProgress(progress); err != nil {
		return err
	}

	logger.Log.Debug("course progress recomputed",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.Int("percentage", percentage),
		zap.Bool("completed", isCompleted),
	)
	return nil
}

// RecomputeCourseForAllUsers 课时被删除或结构变化后，给所有有进度记录的用户重算课程进度
func (s *ProgressService) RecomputeCourseForAllUsers(tx *gorm.DB, courseID uint) error {
	userIDs, err := s.ProgressRepo.WithTx(tx).ListUserIDsByCourse(courseID)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.RecomputeCourseProgress(tx, userID, courseID); err != nil {
			return err
		}
	}
	return nil
}

// CourseProgressView 课程进度读接口的返回结构
type CourseProgressView struct {
	Course  *model.CourseProgress  `json:"courseProgress"`
	Lessons []model.LessonProgress `json:"lessonProgress"`
}

// GetCourseProgress 当前用户在某课程上的进度，没有记录时返回零值汇总
func (s *ProgressService) GetCourseProgress(userID, courseID uint) (*CourseProgressView, error) {
	rows, err := s.ProgressRepo.ListLessonProgressByCourse(userID, courseID)
	if err != nil {
		return nil, err
	}

	course, err := s.ProgressRepo.FindCourseProgress(userID, courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		total, err := s.LessonRepo.CountByCourse(courseID)
		if err != nil {
			return nil, err
		}
		course = &model.CourseProgress{
			UserID:       userID,
			CourseID:     courseID,
			TotalLessons: int(total),
		}
	} else if err != nil {
		return nil, err
	}

	return &CourseProgressView{Course: course, Lessons: rows}, nil
}

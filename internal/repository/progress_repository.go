package repository

import (
	"training_hub_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// WithTx 返回绑定到事务的仓库副本
func (r *ProgressRepository) WithTx(tx *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: tx}
}

func (r *ProgressRepository) FindLessonProgress(userID, lessonID uint) (*model.LessonProgress, error) {
	var progress model.LessonProgress
	err := r.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) SaveLessonProgress(progress *model.LessonProgress) error {
	return r.DB.Save(progress).Error
}

// ListLessonProgressByCourse 只返回仍然存在的课时的进度，已删除课时的记录不再出现
func (r *ProgressRepository) ListLessonProgressByCourse(userID, courseID uint) ([]model.LessonProgress, error) {
	var rows []model.LessonProgress
	err := r.DB.
		Joins("JOIN course_lessons ON course_lessons.id = user_lesson_progress.lesson_id AND course_lessons.deleted_at IS NULL").
		Where("user_lesson_progress.user_id = ? AND user_lesson_progress.course_id = ?", userID, courseID).
		Find(&rows).Error
	return rows, err
}

// CountCompletedLessons 统计已完成的课时，删除课时留下的孤儿进度不计入
func (r *ProgressRepository) CountCompletedLessons(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.LessonProgress{}).
		Joins("JOIN course_lessons ON course_lessons.id = user_lesson_progress.lesson_id AND course_lessons.deleted_at IS NULL").
		Where("user_lesson_progress.user_id = ? AND user_lesson_progress.course_id = ? AND user_lesson_progress.is_completed = ?", userID, courseID, true).
		Count(&count).Error
	return count, err
}

// ListUserIDsByCourse 有课程进度记录的用户，课时增删后给他们重算
func (r *ProgressRepository) ListUserIDsByCourse(courseID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.LessonProgress{}).
		Where("course_id = ?", courseID).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *ProgressRepository) FindCourseProgress(userID, courseID uint) (*model.CourseProgress, error) {
	var progress model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *ProgressRepository) SaveCourseProgress(progress *model.CourseProgress) error {
	return r.DB.Save(progress).Error
}

// ListCourseProgressIn 取用户在若干课程上的进度，没有记录的课程不出现在结果里
func (r *ProgressRepository) ListCourseProgressIn(userID uint, courseIDs []uint) ([]model.CourseProgress, error) {
	if len(courseIDs) == 0 {
		return nil, nil
	}
	var rows []model.CourseProgress
	err := r.DB.Where("user_id = ? AND course_id IN ?", userID, courseIDs).
		Find(&rows).Error
	return rows, err
}

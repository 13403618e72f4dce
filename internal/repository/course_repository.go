package repository

import (
	"training_hub_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) Save(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FindWithLessons 加载课程及按 order_index 排序的课时
func (r *CourseRepository) FindWithLessons(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// List 管理员看全部课程，普通用户只看已发布的
func (r *CourseRepository) List(publishedOnly bool) ([]model.Course, error) {
	var courses []model.Course
	query := r.DB.Order("created_at DESC")
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}
	err := query.Find(&courses).Error
	return courses, err
}

// ListMandatoryForRole 已发布的、适用于该角色的必修课
func (r *CourseRepository) ListMandatoryForRole(role model.UserRole) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.
		Where("is_mandatory = ? AND is_published = ?", true, true).
		Where("mandatory_for_role IN ?", []string{string(role), string(model.MandatoryForAll)}).
		Order("created_at ASC").
		Find(&courses).Error
	return courses, err
}

package repository

import (
	"training_hub_backend/internal/model"

	"gorm.io/gorm"
)

type MandatoryRepository struct {
	DB *gorm.DB
}

func NewMandatoryRepository(db *gorm.DB) *MandatoryRepository {
	return &MandatoryRepository{DB: db}
}

// AssignCourse 给一批用户指派必修课，已存在的记录保持不变
func (r *MandatoryRepository) AssignCourse(courseID uint, userIDs []uint) ([]model.MandatoryAssignment, error) {
	assignments := make([]model.MandatoryAssignment, 0, len(userIDs))

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for _, userID := range userIDs {
			var assignment model.MandatoryAssignment
			err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).
				First(&assignment).Error
			if err == gorm.ErrRecordNotFound {
				assignment = model.MandatoryAssignment{UserID: userID, CourseID: courseID}
				if err := tx.Create(&assignment).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			assignments = append(assignments, assignment)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *MandatoryRepository) ListByUser(userID uint) ([]model.MandatoryAssignment, error) {
	var rows []model.MandatoryAssignment
	err := r.DB.Where("user_id = ?", userID).Find(&rows).Error
	return rows, err
}

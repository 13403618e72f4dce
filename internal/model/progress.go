package model

import (
	"time"
)

// LessonProgress 每个 (user, lesson) 一条记录，首次交互时创建，之后原地更新
// swagger:model LessonProgress
type LessonProgress struct {
	BaseModel
	UserID       uint       `gorm:"index:idx_user_lesson,unique;not null" json:"userId"`
	LessonID     uint       `gorm:"index:idx_user_lesson,unique;not null" json:"lessonId"`
	CourseID     uint       `gorm:"index;not null" json:"courseId"`
	IsCompleted  bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	QuizScore    *int       `json:"quizScore,omitempty"`
	QuizAttempts int        `gorm:"default:0" json:"quizAttempts"`
}

func (LessonProgress) TableName() string {
	return "user_lesson_progress"
}

// CourseProgress 课程进度汇总，只由聚合器重算写入，从不手工修改
// swagger:model CourseProgress
type CourseProgress struct {
	BaseModel
	UserID             uint       `gorm:"index:idx_user_course,unique;not null" json:"userId"`
	CourseID           uint       `gorm:"index:idx_user_course,unique;not null" json:"courseId"`
	ProgressPercentage int        `gorm:"default:0" json:"progressPercentage"`
	IsCompleted        bool       `gorm:"default:false" json:"isCompleted"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	LessonsCompleted   int        `gorm:"default:0" json:"lessonsCompleted"`
	TotalLessons       int        `gorm:"default:0" json:"totalLessons"`
}

func (CourseProgress) TableName() string {
	return "user_course_progress"
}

// MandatoryAssignment 管理员给用户指派必修课的记录
// swagger:model MandatoryAssignment
type MandatoryAssignment struct {
	BaseModel
	UserID   uint `gorm:"index:idx_user_mandatory,unique;not null" json:"userId"`
	CourseID uint `gorm:"index:idx_user_mandatory,unique;not null" json:"courseId"`
}

func (MandatoryAssignment) TableName() string {
	return "user_mandatory_courses"
}

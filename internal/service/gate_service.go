package service

import (
	"errors"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"

	"gorm.io/gorm"
)

// GateService 必修课关卡：所有适用的必修课都完成后才放行 AI 工具目录
type GateService struct {
	CourseRepo    *repository.CourseRepository
	ProgressRepo  *repository.ProgressRepository
	MandatoryRepo *repository.MandatoryRepository
}

func NewGateService(
	courseRepo *repository.CourseRepository,
	progressRepo *repository.ProgressRepository,
	mandatoryRepo *repository.MandatoryRepository,
) *GateService {
	return &GateService{
		CourseRepo:    courseRepo,
		ProgressRepo:  progressRepo,
		MandatoryRepo: mandatoryRepo,
	}
}

// MandatoryCourseStatus 必修课加上用户进度，没有进度记录时 Progress 为 nil
type MandatoryCourseStatus struct {
	model.Course
	Progress *model.CourseProgress `json:"userProgress"`
}

// GateResult 关卡评估结果
type GateResult struct {
	Courses             []MandatoryCourseStatus `json:"courses"`
	TotalMandatory      int                     `json:"totalMandatoryCourses"`
	CompletedMandatory  int                     `json:"completedMandatoryCourses"`
	AllCoursesCompleted bool                    `json:"allCoursesCompleted"`
	CanAccessCatalog    bool                    `json:"canAccessCatalog"`
}

// Evaluate 只读评估：收集适用于该角色的已发布必修课，逐个挂上用户进度。
// 没有进度记录按 0%、未完成处理，不会在这里创建进度行。
// 没有任何必修课的用户直接放行。
func (s *GateService) Evaluate(userID uint, role model.UserRole) (*GateResult, error) {
	courses, err := s.CourseRepo.ListMandatoryForRole(role)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]uint, len(courses))
	for i, c := range courses {
		courseIDs[i] = c.ID
	}

	progressRows, err := s.ProgressRepo.ListCourseProgressIn(userID, courseIDs)
	if err != nil {
		return nil, err
	}
	progressByCourse := make(map[uint]*model.CourseProgress, len(progressRows))
	for i := range progressRows {
		progressByCourse[progressRows[i].CourseID] = &progressRows[i]
	}

	result := &GateResult{
		Courses:        make([]MandatoryCourseStatus, 0, len(courses)),
		TotalMandatory: len(courses),
	}
	for _, course := range courses {
		progress := progressByCourse[course.ID]
		if progress != nil && progress.IsCompleted {
			result.CompletedMandatory++
		}
		result.Courses = append(result.Courses, MandatoryCourseStatus{
			Course:   course,
			Progress: progress,
		})
	}

	result.AllCoursesCompleted = result.CompletedMandatory == result.TotalMandatory
	result.CanAccessCatalog = result.AllCoursesCompleted
	return result, nil
}

// ListAssignments 某个用户名下的必修课指派记录，供管理端查看
func (s *GateService) ListAssignments(userID uint) ([]model.MandatoryAssignment, error) {
	return s.MandatoryRepo.ListByUser(userID)
}

// AssignCourse 管理员把必修课指派给一批用户，幂等
func (s *GateService) AssignCourse(courseID uint, userIDs []uint) ([]model.MandatoryAssignment, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return s.MandatoryRepo.AssignCourse(courseID, userIDs)
}

package service

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
	LessonRepo *repository.LessonRepository
	Storage    *StorageService
	Progress   *ProgressService
	DB         *gorm.DB
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	lessonRepo *repository.LessonRepository,
	storage *StorageService,
	progress *ProgressService,
	db *gorm.DB,
) *CourseService {
	return &CourseService{
		CourseRepo: courseRepo,
		LessonRepo: lessonRepo,
		Storage:    storage,
		Progress:   progress,
		DB:         db,
	}
}

// ListCourses 管理员看到全部课程，普通用户只看到已发布的
func (s *CourseService) ListCourses(role model.UserRole) ([]model.Course, error) {
	return s.CourseRepo.List(role != model.RoleAdmin)
}

// GetCourse 课程详情（含排序后的课时），未发布课程对普通用户隐藏
func (s *CourseService) GetCourse(id uint, role model.UserRole) (*model.Course, error) {
	course, err := s.CourseRepo.FindWithLessons(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if !course.IsPublished && role != model.RoleAdmin {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

// CourseRequest 管理端创建/修改课程
type CourseRequest struct {
	Title            string              `json:"title" binding:"required,max=200"`
	Description      string              `json:"description" binding:"required,max=1000"`
	Category         string              `json:"category" binding:"required,max=100"`
	DurationMinutes  int                 `json:"durationMinutes" binding:"min=1,max=10000"`
	IsPublished      bool                `json:"isPublished"`
	IsMandatory      bool                `json:"isMandatory"`
	MandatoryForRole model.MandatoryRole `json:"mandatoryForRole" binding:"omitempty,oneof=user admin all"`
}

func (s *CourseService) CreateCourse(req CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		DurationMinutes:  req.DurationMinutes,
		IsPublished:      req.IsPublished,
		IsMandatory:      req.IsMandatory,
		MandatoryForRole: req.MandatoryForRole,
	}
	if course.MandatoryForRole == "" {
		course.MandatoryForRole = model.MandatoryForUser
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) UpdateCourse(id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	course.DurationMinutes = req.DurationMinutes
	course.IsPublished = req.IsPublished
	course.IsMandatory = req.IsMandatory
	if req.MandatoryForRole != "" {
		course.MandatoryForRole = req.MandatoryForRole
	}

	if err := s.CourseRepo.Save(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) DeleteCourse(id uint) error {
	if _, err := s.CourseRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	return s.CourseRepo.Delete(id)
}

// LessonRequest 管理端创建/修改课时
type LessonRequest struct {
	CourseID        uint   `json:"courseId" binding:"required"`
	Title           string `json:"title" binding:"required,max=200"`
	Content         string `json:"content" binding:"required"`
	OrderIndex      int    `json:"orderIndex" binding:"min=0"`
	DurationMinutes int    `json:"durationMinutes" binding:"min=1,max=1000"`
}

// CreateLesson 创建课时，order_index 在课程内必须唯一
func (s *CourseService) CreateLesson(req LessonRequest) (*model.Lesson, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	taken, err := s.LessonRepo.OrderIndexTaken(req.CourseID, req.OrderIndex, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateOrderIndex
	}

	lesson := &model.Lesson{
		CourseID:        req.CourseID,
		Title:           req.Title,
		Content:         req.Content,
		OrderIndex:      req.OrderIndex,
		DurationMinutes: req.DurationMinutes,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.LessonRepo.WithTx(tx).Create(lesson); err != nil {
			return err
		}
		// 已完成课程加入新课时后，完成状态要立刻回退
		return s.Progress.RecomputeCourseForAllUsers(tx, req.CourseID)
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) UpdateLesson(id uint, req LessonRequest) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}

	taken, err := s.LessonRepo.OrderIndexTaken(lesson.CourseID, req.OrderIndex, lesson.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, util.ErrDuplicateOrderIndex
	}

	lesson.Title = req.Title
	lesson.Content = req.Content
	lesson.OrderIndex = req.OrderIndex
	lesson.DurationMinutes = req.DurationMinutes

	if err := s.LessonRepo.Save(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// DeleteLesson 删除课时后给课程内所有用户重算进度，已完成的孤儿进度不再计入
func (s *CourseService) DeleteLesson(id uint) error {
	lesson, err := s.LessonRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrLessonNotFound
		}
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.LessonRepo.WithTx(tx).Delete(id); err != nil {
			return err
		}
		return s.Progress.RecomputeCourseForAllUsers(tx, lesson.CourseID)
	})
}

// UploadCover 上传课程封面图片，返回可访问的 URL
func (s *CourseService) UploadCover(ctx *gin.Context, courseID uint, file *multipart.FileHeader) (string, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrCourseNotFound
		}
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedImageExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", fmt.Errorf("unsupported image extension: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	filename := fmt.Sprintf("covers/%d_%s%s", courseID, model.GenerateUUID(), ext)
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeImage + strings.TrimPrefix(ext, ".")
	}

	url, err := s.Storage.Provider.Upload(ctx.Request.Context(), filename, src, file.Size, contentType)
	if err != nil {
		return "", err
	}

	course.CoverURL = url
	if err := s.CourseRepo.Save(course); err != nil {
		return "", err
	}
	return url, nil
}

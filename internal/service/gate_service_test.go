package service

import (
	"testing"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/repository"
	"training_hub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newGateService(db *gorm.DB) *GateService {
	return NewGateService(
		repository.NewCourseRepository(db),
		repository.NewProgressRepository(db),
		repository.NewMandatoryRepository(db),
	)
}

func seedMandatoryCourse(t *testing.T, db *gorm.DB, title string, role model.MandatoryRole, published bool) *model.Course {
	t.Helper()
	course := &model.Course{
		Title:            title,
		IsPublished:      published,
		IsMandatory:      true,
		MandatoryForRole: role,
	}
	require.NoError(t, db.Create(course).Error)
	return course
}

func markCourseCompleted(t *testing.T, db *gorm.DB, userID, courseID uint) {
	t.Helper()
	require.NoError(t, db.Create(&model.CourseProgress{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: 100,
		IsCompleted:        true,
		LessonsCompleted:   1,
		TotalLessons:       1,
	}).Error)
}

func TestGateBlocksUntilAllMandatoryCompleted(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	first := seedMandatoryCourse(t, db, "安全培训", model.MandatoryForUser, true)
	seedMandatoryCourse(t, db, "合规培训", model.MandatoryForUser, true)
	markCourseCompleted(t, db, 1, first.ID)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalMandatory)
	assert.Equal(t, 1, result.CompletedMandatory)
	assert.False(t, result.AllCoursesCompleted)
	assert.False(t, result.CanAccessCatalog)
}

func TestGateOpensWhenAllCompleted(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	first := seedMandatoryCourse(t, db, "安全培训", model.MandatoryForUser, true)
	second := seedMandatoryCourse(t, db, "合规培训", model.MandatoryForAll, true)
	markCourseCompleted(t, db, 1, first.ID)
	markCourseCompleted(t, db, 1, second.ID)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CompletedMandatory)
	assert.True(t, result.AllCoursesCompleted)
	assert.True(t, result.CanAccessCatalog)
}

func TestGateVacuouslyOpenWithoutMandatoryCourses(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalMandatory)
	assert.True(t, result.AllCoursesCompleted)
	assert.True(t, result.CanAccessCatalog)
	assert.Empty(t, result.Courses)
}

func TestGateFiltersByRole(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	seedMandatoryCourse(t, db, "新人培训", model.MandatoryForUser, true)
	seedMandatoryCourse(t, db, "管理培训", model.MandatoryForAdmin, true)
	seedMandatoryCourse(t, db, "全员培训", model.MandatoryForAll, true)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	require.Len(t, result.Courses, 2)
	for _, c := range result.Courses {
		assert.NotEqual(t, model.MandatoryForAdmin, c.MandatoryForRole)
	}
}

func TestGateIgnoresUnpublishedCourses(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	seedMandatoryCourse(t, db, "草稿培训", model.MandatoryForUser, false)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalMandatory)
	assert.True(t, result.CanAccessCatalog)
}

func TestGateStaysOpenAfterLessonDeleted(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)
	progressService := newProgressService(db)
	courseService := newCourseService(db)

	course := seedMandatoryCourse(t, db, "安全培训", model.MandatoryForUser, true)
	lessons := []model.Lesson{
		{CourseID: course.ID, Title: "第一课", OrderIndex: 1},
		{CourseID: course.ID, Title: "第二课", OrderIndex: 2},
	}
	for i := range lessons {
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	for i := range lessons {
		_, err := progressService.CompleteLessonDirect(1, lessons[i].ID)
		require.NoError(t, err)
	}

	require.NoError(t, courseService.DeleteLesson(lessons[1].ID))

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, 1, result.CompletedMandatory)
	assert.True(t, result.CanAccessCatalog)
}

func TestGateProgressNilWithoutRecord(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	seedMandatoryCourse(t, db, "安全培训", model.MandatoryForUser, true)

	result, err := s.Evaluate(1, model.RoleUser)
	require.NoError(t, err)
	require.Len(t, result.Courses, 1)
	assert.Nil(t, result.Courses[0].Progress)
}

func TestAssignCourseIdempotent(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	course := seedMandatoryCourse(t, db, "安全培训", model.MandatoryForUser, true)

	_, err := s.AssignCourse(course.ID, []uint{1, 2})
	require.NoError(t, err)
	_, err = s.AssignCourse(course.ID, []uint{1, 2})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.MandatoryAssignment{}).
		Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	assignments, err := s.ListAssignments(1)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, course.ID, assignments[0].CourseID)
}

func TestAssignCourseUnknownCourse(t *testing.T) {
	db := newTestDB(t)
	s := newGateService(db)

	_, err := s.AssignCourse(999, []uint{1})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

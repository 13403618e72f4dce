package controller

import (
	"errors"
	"training_hub_backend/internal/service"
	"training_hub_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
	GateService     *service.GateService
}

func NewProgressController(progressService *service.ProgressService, gateService *service.GateService) *ProgressController {
	return &ProgressController{
		ProgressService: progressService,
		GateService:     gateService,
	}
}

// CompleteLesson godoc
// @Summary 标记课时完成
// @Description 直接完成无测验的课时，带测验的课时必须通过测验
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课时ID"
// @Success 200 {object} util.Response{data=model.LessonProgress}
// @Failure 400 {object} util.Response "课时需要通过测验"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{id}/complete [post]
func (c *ProgressController) CompleteLesson(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	progress, err := c.ProgressService.CompleteLessonDirect(user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLessonNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrQuizRequired):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, progress)
}

// GetCourseProgress godoc
// @Summary 查询课程进度
// @Description 当前用户在某课程上的课时进度和汇总进度
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.CourseProgressView}
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) GetCourseProgress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.ProgressService.GetCourseProgress(user.UserID, util.MustParseUint(ctx.Param("id")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, view)
}

// GetMandatoryCourses godoc
// @Summary 查询必修课完成情况
// @Description 返回适用于当前角色的必修课、各自进度和目录准入判定
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.GateResult}
// @Router /api/mandatory-courses [get]
func (c *ProgressController) GetMandatoryCourses(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.GateService.Evaluate(user.UserID, user.Role)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}

// ListMandatoryAssignments godoc
// @Summary 查询用户的必修课指派记录
// @Description 管理员查看某个用户被指派了哪些必修课
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param userId query int true "用户ID"
// @Success 200 {object} util.Response{data=[]model.MandatoryAssignment}
// @Router /api/admin/mandatory-courses [get]
func (c *ProgressController) ListMandatoryAssignments(ctx *gin.Context) {
	assignments, err := c.GateService.ListAssignments(util.MustParseUint(ctx.Query("userId")))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, assignments)
}

// AssignMandatoryRequest 管理员指派必修课
type AssignMandatoryRequest struct {
	CourseID uint   `json:"courseId" binding:"required"`
	UserIDs  []uint `json:"userIds" binding:"required,min=1"`
}

// AssignMandatoryCourse godoc
// @Summary 指派必修课
// @Description 管理员把必修课指派给一批用户，重复指派是幂等的
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AssignMandatoryRequest true "指派信息"
// @Success 201 {object} util.Response{data=[]model.MandatoryAssignment}
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/admin/mandatory-courses [post]
func (c *ProgressController) AssignMandatoryCourse(ctx *gin.Context) {
	var req AssignMandatoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assignments, err := c.GateService.AssignCourse(req.CourseID, req.UserIDs)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, assignments)
}

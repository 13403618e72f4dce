package controller

import (
	"errors"
	"training_hub_backend/internal/model"
	"training_hub_backend/internal/service"
	"training_hub_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CatalogController struct {
	CatalogService *service.CatalogService
	GateService    *service.GateService
}

func NewCatalogController(catalogService *service.CatalogService, gateService *service.GateService) *CatalogController {
	return &CatalogController{
		CatalogService: catalogService,
		GateService:    gateService,
	}
}

// ListServices godoc
// @Summary AI工具目录
// @Description 必修课全部完成后才可访问，管理员不受限制，可按分类过滤
// @Tags 工具目录
// @Produce json
// @Security BearerAuth
// @Param category query string false "分类"
// @Success 200 {object} util.Response{data=[]model.ServiceEntry}
// @Failure 403 {object} util.Response "必修课未完成"
// @Router /api/services [get]
func (c *CatalogController) ListServices(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	// 关卡判定：普通用户必须先完成全部必修课
	if user.Role != model.RoleAdmin {
		gate, err := c.GateService.Evaluate(user.UserID, user.Role)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		if !gate.CanAccessCatalog {
			util.Error(ctx, 403, util.ErrCatalogLocked.Error())
			return
		}
	}

	services, err := c.CatalogService.List(ctx.Request.Context(), ctx.Query("category"))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, services)
}

// CreateService godoc
// @Summary 创建目录条目
// @Tags 工具目录管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ServiceRequest true "条目信息"
// @Success 201 {object} util.Response{data=model.ServiceEntry}
// @Router /api/admin/services [post]
func (c *CatalogController) CreateService(ctx *gin.Context) {
	var req service.ServiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, err := c.CatalogService.Create(ctx.Request.Context(), req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, entry)
}

// UpdateService godoc
// @Summary 修改目录条目
// @Tags 工具目录管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Param body body service.ServiceRequest true "条目信息"
// @Success 200 {object} util.Response{data=model.ServiceEntry}
// @Failure 404 {object} util.Response "条目不存在"
// @Router /api/admin/services/{id} [put]
func (c *CatalogController) UpdateService(ctx *gin.Context) {
	var req service.ServiceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, err := c.CatalogService.Update(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")), req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, entry)
}

// DeleteService godoc
// @Summary 删除目录条目
// @Tags 工具目录管理
// @Produce json
// @Security BearerAuth
// @Param id path int true "条目ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "条目不存在"
// @Router /api/admin/services/{id} [delete]
func (c *CatalogController) DeleteService(ctx *gin.Context) {
	err := c.CatalogService.Delete(ctx.Request.Context(), util.MustParseUint(ctx.Param("id")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{"message": "Service deleted"})
}

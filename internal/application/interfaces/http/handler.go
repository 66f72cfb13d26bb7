package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sharemeal/console/internal/application/application"
	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/internal/session"
	"github.com/sharemeal/console/pkg/logger"
	"github.com/sharemeal/console/pkg/middleware"
)

// maxUploadBytes 单个附件大小上限
const maxUploadBytes = 10 << 20

// WorkspaceHandler HTTP 处理器
type WorkspaceHandler struct {
	service *application.Service
}

// NewWorkspaceHandler 创建 HTTP 处理器
func NewWorkspaceHandler(service *application.Service) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// RegisterRoutes 注册路由。auth 为必选的会话中间件，
// submitLimit 仅挂在提交接口上，可为 nil。
func (h *WorkspaceHandler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc, submitLimit gin.HandlerFunc) {
	api := router.Group("/api/v1", auth)
	{
		api.GET("/countries", h.ListCountries)
		api.GET("/workspace/notification", h.ConsumeNotification)

		api.GET("/workspace/listing", h.GetListing)
		api.POST("/workspace/listing/context", h.SwitchContext)
		api.POST("/workspace/listing/page", h.ChangePage)
		api.POST("/workspace/listing/page-size", h.ChangePageSize)
		api.POST("/workspace/listing/filters", h.SetFilters)

		api.GET("/workspace/detail", h.GetDetail)
		api.POST("/workspace/detail/:id/open", h.OpenDetail)
		api.POST("/workspace/detail/close", h.CloseDetail)
		api.POST("/workspace/detail/members/page", h.SetMemberPage)
		api.POST("/workspace/detail/:id/approve", h.Approve)
		api.POST("/workspace/detail/:id/reject", h.Reject)

		api.GET("/workspace/draft", h.GetDraft)
		api.POST("/workspace/draft/type", h.SetApplicantType)
		api.POST("/workspace/draft/personal", h.SetPersonal)
		api.POST("/workspace/draft/country", h.SetCountry)
		api.POST("/workspace/draft/business-name", h.SetBusinessName)
		api.POST("/workspace/draft/addresses", h.AddAddress)
		api.PUT("/workspace/draft/addresses/:index", h.UpdateAddress)
		api.DELETE("/workspace/draft/addresses/:index", h.RemoveAddress)
		api.POST("/workspace/draft/members", h.AddMember)
		api.PUT("/workspace/draft/members/:index", h.UpdateMember)
		api.DELETE("/workspace/draft/members/:index", h.RemoveMember)
		api.POST("/workspace/draft/files/:fileType", h.AttachFile)
		api.DELETE("/workspace/draft/files/:fileType", h.ClearFile)
		api.POST("/workspace/draft/reset", h.ResetDraft)

		if submitLimit != nil {
			api.POST("/workspace/draft/submit", submitLimit, h.SubmitDraft)
		} else {
			api.POST("/workspace/draft/submit", h.SubmitDraft)
		}
	}
}

// workspace 由会话声明换取调用者工作区
func (h *WorkspaceHandler) workspace(c *gin.Context) (*application.Workspace, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session claims"})
		return nil, false
	}

	ident := session.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
		Token:  middleware.GetBearerToken(c),
	}
	return h.service.Workspace(c.Request.Context(), ident), true
}

// ListCountries 返回可申请的国家目录
func (h *WorkspaceHandler) ListCountries(c *gin.Context) {
	countries, err := h.service.Countries(c.Request.Context())
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to list countries", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": domain.UserMessage(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}

// ConsumeNotification 读取并清除一次性提示
func (h *WorkspaceHandler) ConsumeNotification(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": ws.ConsumeNotification()})
}

// GetListing 返回激活列表上下文
func (h *WorkspaceHandler) GetListing(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.ListingView(ws))
}

// SwitchContextRequest 切换列表上下文请求
type SwitchContextRequest struct {
	Context string `json:"context" binding:"required"`
}

// SwitchContext 切换列表上下文
func (h *WorkspaceHandler) SwitchContext(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SwitchContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SwitchContext(c.Request.Context(), ws, application.ContextKind(req.Context)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.ListingView(ws))
}

// ChangePageRequest 翻页请求
type ChangePageRequest struct {
	Page *int `json:"page" binding:"required"`
}

// ChangePage 翻页
func (h *WorkspaceHandler) ChangePage(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req ChangePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ChangePage(c.Request.Context(), ws, *req.Page); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.ListingView(ws))
}

// ChangePageSizeRequest 调整每页条数请求
type ChangePageSizeRequest struct {
	Size int `json:"size" binding:"required"`
}

// ChangePageSize 调整每页条数
func (h *WorkspaceHandler) ChangePageSize(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req ChangePageSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ChangePageSize(c.Request.Context(), ws, req.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.ListingView(ws))
}

// SetFiltersRequest 待审列表过滤请求
type SetFiltersRequest struct {
	CountryCode string `json:"countryCode"`
	FilterType  string `json:"filterType"`
}

// SetFilters 更新待审列表过滤条件
func (h *WorkspaceHandler) SetFilters(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetSubmittedFilters(c.Request.Context(), ws, req.CountryCode, req.FilterType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.ListingView(ws))
}

// GetDetail 返回当前详情视图
func (h *WorkspaceHandler) GetDetail(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.DetailView(ws))
}

// OpenDetail 打开申请详情
func (h *WorkspaceHandler) OpenDetail(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application id is required"})
		return
	}

	c.JSON(http.StatusOK, h.service.OpenDetail(c.Request.Context(), ws, id))
}

// CloseDetail 关闭详情
func (h *WorkspaceHandler) CloseDetail(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.service.CloseDetail(ws)
	c.JSON(http.StatusOK, h.service.DetailView(ws))
}

// SetMemberPageRequest 成员翻页请求
type SetMemberPageRequest struct {
	Page *int `json:"page" binding:"required"`
}

// SetMemberPage 成员子列表翻页
func (h *WorkspaceHandler) SetMemberPage(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetMemberPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := h.service.SetMemberPage(ws, *req.Page)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// Approve 批准申请
func (h *WorkspaceHandler) Approve(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application id is required"})
		return
	}

	c.JSON(http.StatusOK, h.service.Approve(c.Request.Context(), ws, id))
}

// Reject 驳回申请
func (h *WorkspaceHandler) Reject(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "application id is required"})
		return
	}

	c.JSON(http.StatusOK, h.service.Reject(c.Request.Context(), ws, id))
}

// GetDraft 返回草稿只读视图
func (h *WorkspaceHandler) GetDraft(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.service.DraftView(ws))
}

// SetApplicantTypeRequest 切换申请类型请求
type SetApplicantTypeRequest struct {
	Type string `json:"type" binding:"required"`
}

// SetApplicantType 切换草稿申请类型
func (h *WorkspaceHandler) SetApplicantType(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetApplicantTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error {
		return d.SetApplicantType(domain.ApplicantType(req.Type))
	})
}

// SetPersonalRequest 个人信息请求，未携带的字段不修改
type SetPersonalRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// SetPersonal 更新草稿个人信息
func (h *WorkspaceHandler) SetPersonal(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetPersonalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error {
		if req.Name != nil {
			d.SetPersonalName(*req.Name)
		}
		if req.Address != nil {
			d.SetPersonalAddress(*req.Address)
		}
		return nil
	})
}

// SetCountryRequest 目标国家请求
type SetCountryRequest struct {
	Country string `json:"country"`
}

// SetCountry 设置当前类型区段的目标国家
func (h *WorkspaceHandler) SetCountry(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetCountryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error {
		d.SetCountry(req.Country)
		return nil
	})
}

// SetBusinessNameRequest 商户/组织名称请求
type SetBusinessNameRequest struct {
	Name string `json:"name"`
}

// SetBusinessName 设置商户/组织名称
func (h *WorkspaceHandler) SetBusinessName(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	var req SetBusinessNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error {
		return d.SetBusinessName(req.Name)
	})
}

// AddAddress 追加一行空白营业地址
func (h *WorkspaceHandler) AddAddress(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.mutate(c, ws, func(d *domain.Draft) error { return d.AddAddress() })
}

// UpdateListEntryRequest 列表行更新请求
type UpdateListEntryRequest struct {
	Value string `json:"value"`
}

// UpdateAddress 更新指定下标的营业地址
func (h *WorkspaceHandler) UpdateAddress(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	var req UpdateListEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error { return d.UpdateAddress(index, req.Value) })
}

// RemoveAddress 删除指定下标的营业地址
func (h *WorkspaceHandler) RemoveAddress(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error { return d.RemoveAddress(index) })
}

// AddMember 追加一行空白成员邮箱
func (h *WorkspaceHandler) AddMember(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.mutate(c, ws, func(d *domain.Draft) error { return d.AddMember() })
}

// UpdateMember 更新指定下标的成员邮箱，首位成员固定为提交者本人
func (h *WorkspaceHandler) UpdateMember(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	var req UpdateListEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error { return d.UpdateMember(index, req.Value) })
}

// RemoveMember 删除指定下标的成员邮箱
func (h *WorkspaceHandler) RemoveMember(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error { return d.RemoveMember(index) })
}

// AttachFile 以 multipart 上传附件到指定槽位，重复上传覆盖旧文件
func (h *WorkspaceHandler) AttachFile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	fileType := c.Param("fileType")
	if !domain.ValidFileType(fileType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown file type"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	src, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil || len(content) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}

	ref := domain.FileRef{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	}
	h.mutate(c, ws, func(d *domain.Draft) error {
		return d.AttachFile(domain.FileType(fileType), ref)
	})
}

// ClearFile 清空指定附件槽位
func (h *WorkspaceHandler) ClearFile(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	fileType := c.Param("fileType")
	if !domain.ValidFileType(fileType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown file type"})
		return
	}

	h.mutate(c, ws, func(d *domain.Draft) error { return d.ClearFile(domain.FileType(fileType)) })
}

// ResetDraft 丢弃草稿重新开始
func (h *WorkspaceHandler) ResetDraft(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}
	h.service.ResetDraft(c.Request.Context(), ws)
	c.JSON(http.StatusOK, h.service.DraftView(ws))
}

// SubmitDraft 校验并提交草稿。校验或上游失败通过一次性提示反馈，
// 本接口只回答这次提交是否被接受。
func (h *WorkspaceHandler) SubmitDraft(c *gin.Context) {
	ws, ok := h.workspace(c)
	if !ok {
		return
	}

	submitted := h.service.SubmitDraft(c.Request.Context(), ws)
	if submitted {
		h.service.ResetDraft(c.Request.Context(), ws)
	}
	c.JSON(http.StatusOK, gin.H{"submitted": submitted})
}

// mutate 应用一次草稿变更并返回最新草稿视图
func (h *WorkspaceHandler) mutate(c *gin.Context, ws *application.Workspace, fn func(*domain.Draft) error) {
	if err := h.service.MutateDraft(c.Request.Context(), ws, fn); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.service.DraftView(ws))
}

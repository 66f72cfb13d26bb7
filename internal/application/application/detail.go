package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/pkg/logger"
)

// OpenDetail 打开一份申请详情：CLOSED → LOADING → {LOADED | LOAD_FAILED}。
// 组织申请加载成功后立即物化成员第一页（每页 5 条），后续成员翻页
// 纯粹在已拉取的数组上切片，不再发起网络请求。
func (s *Service) OpenDetail(ctx context.Context, ws *Workspace, id string) *DetailView {
	ws.mu.Lock()
	ws.detail.Phase = DetailLoading
	ws.detail.ID = id
	ws.detail.Detail = nil
	ws.detail.MemberPage = 0
	ws.detail.seq++
	seq := ws.detail.seq
	token := ws.ident.Token
	ws.mu.Unlock()

	detail, err := s.gateway.GetApplicationDetail(ctx, token, id)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.detail.seq == seq {
		if err != nil {
			logger.Warn(ctx, "detail fetch failed", "application_id", id, "error", err)
			ws.detail.Phase = DetailLoadFailed
			ws.setNotice(NoticeError, domain.UserMessage(err))
		} else {
			ws.detail.Phase = DetailLoaded
			ws.detail.Detail = detail
		}
	}

	return s.detailViewLocked(ws)
}

// CloseDetail 关闭详情，回到 CLOSED
func (s *Service) CloseDetail(ws *Workspace) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.detail = DetailState{Phase: DetailClosed, seq: ws.detail.seq}
}

// DetailView 返回当前详情视图，授权标记每次重新计算
func (s *Service) DetailView(ws *Workspace) *DetailView {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return s.detailViewLocked(ws)
}

// SetMemberPage 切换成员子列表页码，仅对已加载的组织详情有效
func (s *Service) SetMemberPage(ws *Workspace, page int) (*DetailView, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	d := ws.detail.Detail
	if ws.detail.Phase != DetailLoaded || d == nil || d.Organization == nil {
		return nil, fmt.Errorf("no organization detail is open")
	}
	if page < 0 || (page > 0 && page*memberPageSize >= len(d.Organization.Members)) {
		return nil, fmt.Errorf("member page %d out of range", page)
	}

	ws.detail.MemberPage = page
	return s.detailViewLocked(ws), nil
}

// Approve 批准申请
func (s *Service) Approve(ctx context.Context, ws *Workspace, id string) *DetailView {
	return s.review(ctx, ws, id, true)
}

// Reject 驳回申请
func (s *Service) Reject(ctx context.Context, ws *Workspace, id string) *DetailView {
	return s.review(ctx, ws, id, false)
}

// review 执行一次审批动作：一次状态变更请求，然后并发地
// (a) 重新拉取该申请详情 (b) 按当前过滤与页码重新拉取待审列表，
// 两个刷新互不阻塞、允许独立失败，保证列表与打开的详情不再分歧。
func (s *Service) review(ctx context.Context, ws *Workspace, id string, approve bool) *DetailView {
	ws.mu.Lock()
	token := ws.ident.Token
	actorID := ws.ident.UserID
	actorRole := ws.ident.Role
	var applicantType domain.ApplicantType
	if ws.detail.Detail != nil && ws.detail.ID == id {
		applicantType = ws.detail.Detail.Type
	}
	ws.mu.Unlock()

	var msg string
	var err error
	action := domain.AuditApproved
	if approve {
		msg, err = s.gateway.ApproveApplication(ctx, token, id)
	} else {
		action = domain.AuditRejected
		msg, err = s.gateway.RejectApplication(ctx, token, id)
	}

	if err != nil {
		logger.Warn(ctx, "review action failed", "application_id", id, "action", action, "error", err)
		ws.mu.Lock()
		ws.setNotice(NoticeError, domain.UserMessage(err))
		ws.mu.Unlock()
	} else {
		if msg == "" {
			if approve {
				msg = "Application approved."
			} else {
				msg = "Application rejected."
			}
		}
		ws.mu.Lock()
		ws.setNotice(NoticeSuccess, msg)
		ws.mu.Unlock()

		s.countReviewed(action)
		s.publishAudit(ctx, &domain.AuditEvent{
			EventID:       uuid.NewString(),
			Action:        action,
			ApplicationID: id,
			ApplicantType: applicantType,
			ActorID:       actorID,
			ActorRole:     actorRole,
			OccurredAt:    time.Now(),
		})
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.refreshDetail(ctx, ws, id)
	}()
	go func() {
		defer wg.Done()
		s.refreshContext(ctx, ws, ContextSubmitted)
	}()
	wg.Wait()

	return s.DetailView(ws)
}

// refreshDetail 重新拉取打开中的详情；失败保留旧详情，过期响应丢弃
func (s *Service) refreshDetail(ctx context.Context, ws *Workspace, id string) {
	ws.mu.Lock()
	if ws.detail.ID != id || ws.detail.Phase == DetailClosed {
		ws.mu.Unlock()
		return
	}
	ws.detail.seq++
	seq := ws.detail.seq
	token := ws.ident.Token
	ws.mu.Unlock()

	detail, err := s.gateway.GetApplicationDetail(ctx, token, id)

	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.detail.seq != seq || ws.detail.ID != id {
		return
	}
	if err != nil {
		logger.Warn(ctx, "detail refresh failed, keeping last good detail", "application_id", id, "error", err)
		return
	}

	ws.detail.Detail = detail
	ws.detail.Phase = DetailLoaded
}

// detailViewLocked 构建详情视图，调用方必须已持有 ws.mu。
// 授权永远即时推导，不跨申请缓存；按钮只对当前终态隐藏，
// 服务端对重复的相同动作幂等。
func (s *Service) detailViewLocked(ws *Workspace) *DetailView {
	dv := &DetailView{
		Phase: ws.detail.Phase,
		ID:    ws.detail.ID,
	}

	d := ws.detail.Detail
	if d == nil {
		return dv
	}

	dv.Status = d.Status
	dv.Type = d.Type
	dv.ApplicantName = d.ApplicantName
	dv.AppliedCountry = d.AppliedCountry
	dv.CreatedAt = d.CreatedAt

	dv.Files = make([]FileView, 0, len(d.Files))
	for _, f := range d.Files {
		dv.Files = append(dv.Files, FileView{Name: f.Name, URL: f.URL, FileType: f.FileType})
	}

	if d.PersonalAddress != nil {
		dv.PersonalAddress = d.PersonalAddress.Address
	}

	switch {
	case d.Organization != nil:
		dv.BusinessName = d.Organization.Name
		dv.BusinessAddresses = addressLines(d.Organization.Addresses)
		dv.MemberPage = memberPageOf(d.Organization.Members, ws.detail.MemberPage)
	case d.Merchant != nil:
		dv.BusinessName = d.Merchant.Name
		dv.BusinessAddresses = addressLines(d.Merchant.Addresses)
	}

	if ws.detail.Phase == DetailLoaded && domain.CanReview(ws.ident.Role, d.Type) {
		dv.CanApprove = d.Status != domain.StatusApproved
		dv.CanReject = d.Status != domain.StatusRejected
	}

	return dv
}

func addressLines(addrs []domain.Address) []string {
	lines := make([]string, 0, len(addrs))
	for _, a := range addrs {
		lines = append(lines, a.Address)
	}
	return lines
}

// memberPageOf 对已加载的成员数组按页切片
func memberPageOf(members []domain.Member, page int) *MemberPageView {
	total := len(members)
	if page < 0 || page*memberPageSize >= total {
		page = 0
	}

	start := page * memberPageSize
	end := start + memberPageSize
	if end > total {
		end = total
	}

	views := make([]MemberView, 0, end-start)
	for _, m := range members[start:end] {
		views = append(views, MemberView{ID: m.ID, Email: m.Email, Name: m.Name})
	}

	return &MemberPageView{
		Members:  views,
		Page:     page,
		PageSize: memberPageSize,
		Total:    total,
	}
}

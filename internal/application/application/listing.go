package application

import (
	"context"
	"fmt"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/pkg/logger"
)

// SwitchContext 切换激活的列表上下文，游标重置为 {page:0, limit:10} 并重新拉取
func (s *Service) SwitchContext(ctx context.Context, ws *Workspace, kind ContextKind) error {
	if kind != ContextPersonal && kind != ContextSubmitted {
		return fmt.Errorf("unknown listing context: %s", kind)
	}

	ws.mu.Lock()
	ws.listing.Active = kind
	lc := ws.listing.context(kind)
	lc.Page = defaultPage
	lc.Limit = defaultLimit
	ws.mu.Unlock()

	s.snapshotAndPersist(ctx, ws)
	s.refreshContext(ctx, ws, kind)
	return nil
}

// ChangePage 翻页并重新拉取激活上下文
func (s *Service) ChangePage(ctx context.Context, ws *Workspace, page int) error {
	if page < 0 {
		return fmt.Errorf("page must not be negative")
	}

	ws.mu.Lock()
	kind := ws.listing.Active
	ws.listing.context(kind).Page = page
	ws.mu.Unlock()

	s.snapshotAndPersist(ctx, ws)
	s.refreshContext(ctx, ws, kind)
	return nil
}

// ChangePageSize 调整每页条数，页码重置为 0。
// 若尺寸与页码均未变化且已有数据，不发起重复拉取，避免两次请求竞态。
func (s *Service) ChangePageSize(ctx context.Context, ws *Workspace, size int) error {
	if size <= 0 {
		return fmt.Errorf("page size must be positive")
	}

	ws.mu.Lock()
	kind := ws.listing.Active
	lc := ws.listing.context(kind)
	unchanged := lc.Limit == size && lc.Page == defaultPage && lc.loaded
	lc.Limit = size
	lc.Page = defaultPage
	ws.mu.Unlock()

	if unchanged {
		return nil
	}

	s.snapshotAndPersist(ctx, ws)
	s.refreshContext(ctx, ws, kind)
	return nil
}

// SetSubmittedFilters 更新待审列表的国家/类型过滤，页码归零并重新拉取
func (s *Service) SetSubmittedFilters(ctx context.Context, ws *Workspace, countryCode, filterType string) error {
	if filterType != "" && !domain.ValidApplicantType(filterType) {
		return fmt.Errorf("unknown filter type: %s", filterType)
	}

	ws.mu.Lock()
	lc := &ws.listing.Submitted
	lc.CountryCode = countryCode
	lc.FilterType = filterType
	lc.Page = defaultPage
	ws.mu.Unlock()

	s.snapshotAndPersist(ctx, ws)
	s.refreshContext(ctx, ws, ContextSubmitted)
	return nil
}

// ListingView 返回激活上下文的只读视图
func (s *Service) ListingView(ws *Workspace) *ListingView {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	kind := ws.listing.Active
	lc := ws.listing.context(kind)
	rows := make([]ApplicationRow, len(lc.Rows))
	copy(rows, lc.Rows)

	return &ListingView{
		Context:     kind,
		Page:        lc.Page,
		Limit:       lc.Limit,
		Total:       lc.Total,
		Rows:        rows,
		CountryCode: lc.CountryCode,
		FilterType:  lc.FilterType,
	}
}

// refreshContext 拉取指定上下文的当前页。失败时记日志并保留上一次
// 成功拉取的数据（fail-soft）；序号落后的响应直接丢弃，旧的慢响应
// 永远不会覆盖新状态。
func (s *Service) refreshContext(ctx context.Context, ws *Workspace, kind ContextKind) {
	ws.mu.Lock()
	lc := ws.listing.context(kind)
	lc.seq++
	seq := lc.seq
	token := ws.ident.Token
	page, limit := lc.Page, lc.Limit
	countryCode, filterType := lc.CountryCode, lc.FilterType
	ws.mu.Unlock()

	var list *domain.ApplicationList
	var err error
	if kind == ContextSubmitted {
		list, err = s.gateway.ListSubmittedApplications(ctx, token, page, limit, countryCode, filterType)
	} else {
		list, err = s.gateway.ListPersonalApplications(ctx, token, page, limit)
	}

	ws.mu.Lock()
	defer ws.mu.Unlock()

	lc = ws.listing.context(kind)
	if lc.seq != seq {
		// 已被更新的请求取代
		return
	}
	if err != nil {
		logger.Warn(ctx, "listing fetch failed, keeping last good page",
			"context", kind, "page", page, "limit", limit, "error", err)
		return
	}

	lc.Rows = rowsOf(list.Items)
	lc.Total = list.TotalCount
	lc.loaded = true
}

package application

import (
	"context"
	"sync"
	"testing"

	"github.com/sharemeal/console/internal/application/domain"
)

func TestOpenDetailSuccess(t *testing.T) {
	g := &fakeGateway{detail: detailOf("a1", domain.TypeBeneficiary, domain.StatusPending)}
	svc, ws := newTestService(g)

	view := svc.OpenDetail(context.Background(), ws, "a1")

	if view.Phase != DetailLoaded {
		t.Fatalf("phase = %s, want LOADED", view.Phase)
	}
	if view.ID != "a1" || view.Status != domain.StatusPending {
		t.Errorf("view = %+v", view)
	}
	if !view.CanApprove || !view.CanReject {
		t.Error("admin should be able to review a pending application")
	}
}

func TestOpenDetailFailure(t *testing.T) {
	g := &fakeGateway{detailErr: &domain.StructuredError{Code: "FORBIDDEN", Message: "Not yours."}}
	svc, ws := newTestService(g)

	view := svc.OpenDetail(context.Background(), ws, "a1")

	if view.Phase != DetailLoadFailed {
		t.Fatalf("phase = %s, want LOAD_FAILED", view.Phase)
	}
	if view.CanApprove || view.CanReject {
		t.Error("review enabled on failed load")
	}

	n := ws.ConsumeNotification()
	if n == nil || n.Level != NoticeError || n.Message != "Not yours." {
		t.Errorf("notification = %+v", n)
	}
}

func TestCloseDetail(t *testing.T) {
	g := &fakeGateway{detail: detailOf("a1", domain.TypeBeneficiary, domain.StatusPending)}
	svc, ws := newTestService(g)

	svc.OpenDetail(context.Background(), ws, "a1")
	svc.CloseDetail(ws)

	view := svc.DetailView(ws)
	if view.Phase != DetailClosed || view.ID != "" {
		t.Errorf("view after close = %+v", view)
	}
}

func TestMemberPaging(t *testing.T) {
	g := &fakeGateway{detail: orgDetail("a1", domain.StatusPending, 12)}
	svc, ws := newTestService(g)
	ctx := context.Background()

	view := svc.OpenDetail(ctx, ws, "a1")
	mp := view.MemberPage
	if mp == nil {
		t.Fatal("member page missing for organization detail")
	}
	if len(mp.Members) != 5 || mp.Page != 0 || mp.Total != 12 || mp.PageSize != 5 {
		t.Errorf("first page = %+v", mp)
	}

	// 成员翻页在已拉取的数组上切片，不触发网络请求
	_, _, before := g.counts()
	view, err := svc.SetMemberPage(ws, 2)
	if err != nil {
		t.Fatalf("SetMemberPage: %v", err)
	}
	if len(view.MemberPage.Members) != 2 || view.MemberPage.Page != 2 {
		t.Errorf("last page = %+v", view.MemberPage)
	}
	if _, _, after := g.counts(); after != before {
		t.Error("member paging issued a network fetch")
	}

	if _, err := svc.SetMemberPage(ws, 3); err == nil {
		t.Error("out-of-range member page accepted")
	}
	if _, err := svc.SetMemberPage(ws, -1); err == nil {
		t.Error("negative member page accepted")
	}
}

func TestMemberPagingRequiresOrganizationDetail(t *testing.T) {
	g := &fakeGateway{detail: detailOf("a1", domain.TypeMerchant, domain.StatusPending)}
	svc, ws := newTestService(g)

	svc.OpenDetail(context.Background(), ws, "a1")
	if _, err := svc.SetMemberPage(ws, 0); err == nil {
		t.Error("member paging allowed on merchant detail")
	}
}

func TestApproveRefreshesDetailAndListing(t *testing.T) {
	g := &fakeGateway{
		detail:        detailOf("a1", domain.TypeBeneficiary, domain.StatusPending),
		submittedList: listOf(1, 1),
	}
	svc, ws := newTestService(g)
	ctx := context.Background()

	if err := svc.SetSubmittedFilters(ctx, ws, "KR", string(domain.TypeBeneficiary)); err != nil {
		t.Fatalf("SetSubmittedFilters: %v", err)
	}
	svc.OpenDetail(ctx, ws, "a1")

	// 服务端状态翻转后，批准触发详情与待审列表双刷新
	g.setDetail(detailOf("a1", domain.TypeBeneficiary, domain.StatusApproved))
	view := svc.Approve(ctx, ws, "a1")

	if view.Status != domain.StatusApproved {
		t.Errorf("status after approve = %s, want APPROVED", view.Status)
	}
	if view.CanApprove {
		t.Error("approve still offered on approved application")
	}
	if !view.CanReject {
		t.Error("reject should stay available on approved application")
	}

	call := g.lastSubmittedCall()
	if call.countryCode != "KR" || call.filterType != "BENEFICIARY" || call.page != 0 {
		t.Errorf("listing refresh lost filters: %+v", call)
	}

	n := ws.ConsumeNotification()
	if n == nil || n.Level != NoticeSuccess || n.Message != "Application approved." {
		t.Errorf("notification = %+v", n)
	}
}

func TestRejectUsesServerMessage(t *testing.T) {
	g := &fakeGateway{
		detail:    detailOf("a1", domain.TypeBeneficiary, domain.StatusPending),
		reviewMsg: "Rejected by reviewer.",
	}
	svc, ws := newTestService(g)
	ctx := context.Background()

	svc.OpenDetail(ctx, ws, "a1")
	g.setDetail(detailOf("a1", domain.TypeBeneficiary, domain.StatusRejected))
	svc.Reject(ctx, ws, "a1")

	n := ws.ConsumeNotification()
	if n == nil || n.Message != "Rejected by reviewer." {
		t.Errorf("notification = %+v", n)
	}
}

func TestReviewFailureStillRefreshes(t *testing.T) {
	g := &fakeGateway{
		detail:    detailOf("a1", domain.TypeBeneficiary, domain.StatusPending),
		reviewErr: &domain.StructuredError{Code: "CONFLICT", Message: "Already handled."},
	}
	svc, ws := newTestService(g)
	ctx := context.Background()

	svc.OpenDetail(ctx, ws, "a1")
	_, submittedBefore, detailBefore := g.counts()

	view := svc.Approve(ctx, ws, "a1")

	if view.Status != domain.StatusPending {
		t.Errorf("status = %s, want unchanged PENDING", view.Status)
	}
	_, submittedAfter, detailAfter := g.counts()
	if detailAfter != detailBefore+1 {
		t.Error("detail not refreshed after failed review")
	}
	if submittedAfter != submittedBefore+1 {
		t.Error("submitted listing not refreshed after failed review")
	}

	n := ws.ConsumeNotification()
	if n == nil || n.Level != NoticeError || n.Message != "Already handled." {
		t.Errorf("notification = %+v", n)
	}
}

func TestReviewHiddenFromUnauthorizedRoles(t *testing.T) {
	g := &fakeGateway{detail: orgDetail("a1", domain.StatusPending, 1)}
	svc := NewService(g, nil, nil, nil)
	ws := svc.Workspace(context.Background(), testIdentity(domain.RoleOrganizationManager))

	// 组织管理员不能审阅组织申请
	view := svc.OpenDetail(context.Background(), ws, "a1")
	if view.CanApprove || view.CanReject {
		t.Errorf("organization manager offered review on organization application: %+v", view)
	}
}

func TestStaleDetailResponseDiscarded(t *testing.T) {
	g := &gatedGateway{}
	svc, ws := newTestService(g)
	ctx := context.Background()

	var older sync.WaitGroup
	older.Add(1)
	go func() {
		defer older.Done()
		svc.OpenDetail(ctx, ws, "a1")
	}()
	g.waitDetailCalls(t, 1)

	var newer sync.WaitGroup
	newer.Add(1)
	go func() {
		defer newer.Done()
		svc.OpenDetail(ctx, ws, "a2")
	}()
	g.waitDetailCalls(t, 2)

	// 后打开的详情先返回
	g.releaseDetail(1, detailOf("a2", domain.TypeBeneficiary, domain.StatusPending), nil)
	newer.Wait()

	// 先前的慢响应最后到达，不得覆盖已打开的新详情
	g.releaseDetail(0, detailOf("a1", domain.TypeBeneficiary, domain.StatusApproved), nil)
	older.Wait()

	view := svc.DetailView(ws)
	if view.Phase != DetailLoaded || view.ID != "a2" {
		t.Fatalf("view = phase %s id %s, want LOADED a2", view.Phase, view.ID)
	}
	if view.Status != domain.StatusPending {
		t.Errorf("status = %s, stale detail overwrote newer state", view.Status)
	}
}

func TestReviewSucceedsWhenAuditPublishFails(t *testing.T) {
	g := &fakeGateway{
		detail:        detailOf("a1", domain.TypeBeneficiary, domain.StatusPending),
		submittedList: listOf(1, 1),
	}
	pub := &failingPublisher{}
	svc := NewService(g, pub, nil, nil)
	ws := svc.Workspace(context.Background(), testIdentity(domain.RoleAdmin))
	ctx := context.Background()

	svc.OpenDetail(ctx, ws, "a1")
	g.setDetail(detailOf("a1", domain.TypeBeneficiary, domain.StatusApproved))
	view := svc.Approve(ctx, ws, "a1")

	// 审计发布失败只落日志，审批结果与提示不受影响
	if view.Status != domain.StatusApproved {
		t.Errorf("status = %s, want APPROVED", view.Status)
	}
	n := ws.ConsumeNotification()
	if n == nil || n.Level != NoticeSuccess || n.Message != "Application approved." {
		t.Errorf("notification = %+v", n)
	}
	if pub.published() != 1 {
		t.Errorf("publish attempts = %d, want 1", pub.published())
	}
}

func TestNotificationOverwriteAndConsume(t *testing.T) {
	g := &fakeGateway{
		detail:    detailOf("a1", domain.TypeBeneficiary, domain.StatusPending),
		reviewErr: &domain.StructuredError{Code: "X", Message: "First failure."},
	}
	svc, ws := newTestService(g)
	ctx := context.Background()

	svc.OpenDetail(ctx, ws, "a1")
	svc.Approve(ctx, ws, "a1")

	g.mu.Lock()
	g.reviewErr = nil
	g.mu.Unlock()
	svc.Reject(ctx, ws, "a1")

	// 后到的提示覆盖未读取的旧提示，读取后即清除
	n := ws.ConsumeNotification()
	if n == nil || n.Level != NoticeSuccess || n.Message != "Application rejected." {
		t.Errorf("notification = %+v", n)
	}
	if ws.ConsumeNotification() != nil {
		t.Error("notification not cleared after consume")
	}
}

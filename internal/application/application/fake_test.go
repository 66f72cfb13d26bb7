package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/internal/session"
)

type listCall struct {
	page, limit int
	countryCode string
	filterType  string
}

// fakeGateway 可编排的上游替身，记录所有调用
type fakeGateway struct {
	mu sync.Mutex

	personalList  *domain.ApplicationList
	submittedList *domain.ApplicationList
	detail        *domain.ApplicationDetail
	countries     []domain.Country
	reviewMsg     string

	listErr   error
	detailErr error
	submitErr error
	reviewErr error

	personalCalls  []listCall
	submittedCalls []listCall
	detailCalls    []string
	submitCalls    []*domain.Submission
	approveCalls   []string
	rejectCalls    []string
}

func (g *fakeGateway) ListPersonalApplications(ctx context.Context, token string, page, limit int) (*domain.ApplicationList, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.personalCalls = append(g.personalCalls, listCall{page: page, limit: limit})
	if g.listErr != nil {
		return nil, g.listErr
	}
	if g.personalList == nil {
		return &domain.ApplicationList{Items: []domain.Application{}}, nil
	}
	return g.personalList, nil
}

func (g *fakeGateway) ListSubmittedApplications(ctx context.Context, token string, page, limit int, countryCode, filterType string) (*domain.ApplicationList, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submittedCalls = append(g.submittedCalls, listCall{page: page, limit: limit, countryCode: countryCode, filterType: filterType})
	if g.listErr != nil {
		return nil, g.listErr
	}
	if g.submittedList == nil {
		return &domain.ApplicationList{Items: []domain.Application{}}, nil
	}
	return g.submittedList, nil
}

func (g *fakeGateway) GetApplicationDetail(ctx context.Context, token, id string) (*domain.ApplicationDetail, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detailCalls = append(g.detailCalls, id)
	if g.detailErr != nil {
		return nil, g.detailErr
	}
	return g.detail, nil
}

func (g *fakeGateway) SubmitApplication(ctx context.Context, token string, sub *domain.Submission) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitCalls = append(g.submitCalls, sub)
	return g.submitErr
}

func (g *fakeGateway) ApproveApplication(ctx context.Context, token, id string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.approveCalls = append(g.approveCalls, id)
	return g.reviewMsg, g.reviewErr
}

func (g *fakeGateway) RejectApplication(ctx context.Context, token, id string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rejectCalls = append(g.rejectCalls, id)
	return g.reviewMsg, g.reviewErr
}

func (g *fakeGateway) ListSupportedCountries(ctx context.Context) ([]domain.Country, error) {
	return g.countries, nil
}

func (g *fakeGateway) setDetail(d *domain.ApplicationDetail) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detail = d
}

func (g *fakeGateway) counts() (personal, submitted, detail int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.personalCalls), len(g.submittedCalls), len(g.detailCalls)
}

func (g *fakeGateway) lastSubmittedCall() listCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submittedCalls[len(g.submittedCalls)-1]
}

type listReply struct {
	list *domain.ApplicationList
	err  error
}

type detailReply struct {
	detail *domain.ApplicationDetail
	err    error
}

// gatedGateway 列表与详情调用均阻塞到测试显式放行，
// 用于制造乱序返回的慢响应
type gatedGateway struct {
	fakeGateway

	gateMu         sync.Mutex
	pendingLists   []chan listReply
	pendingDetails []chan detailReply
}

func (g *gatedGateway) ListPersonalApplications(ctx context.Context, token string, page, limit int) (*domain.ApplicationList, error) {
	ch := make(chan listReply)
	g.gateMu.Lock()
	g.pendingLists = append(g.pendingLists, ch)
	g.gateMu.Unlock()

	r := <-ch
	return r.list, r.err
}

func (g *gatedGateway) GetApplicationDetail(ctx context.Context, token, id string) (*domain.ApplicationDetail, error) {
	ch := make(chan detailReply)
	g.gateMu.Lock()
	g.pendingDetails = append(g.pendingDetails, ch)
	g.gateMu.Unlock()

	r := <-ch
	return r.detail, r.err
}

// waitListCalls 等待第 n 个列表调用挂起
func (g *gatedGateway) waitListCalls(t *testing.T, n int) {
	t.Helper()
	waitFor(t, func() bool {
		g.gateMu.Lock()
		defer g.gateMu.Unlock()
		return len(g.pendingLists) >= n
	})
}

func (g *gatedGateway) waitDetailCalls(t *testing.T, n int) {
	t.Helper()
	waitFor(t, func() bool {
		g.gateMu.Lock()
		defer g.gateMu.Unlock()
		return len(g.pendingDetails) >= n
	})
}

// releaseList 放行第 i 个挂起的列表调用
func (g *gatedGateway) releaseList(i int, list *domain.ApplicationList, err error) {
	g.gateMu.Lock()
	ch := g.pendingLists[i]
	g.gateMu.Unlock()
	ch <- listReply{list: list, err: err}
}

func (g *gatedGateway) releaseDetail(i int, detail *domain.ApplicationDetail, err error) {
	g.gateMu.Lock()
	ch := g.pendingDetails[i]
	g.gateMu.Unlock()
	ch <- detailReply{detail: detail, err: err}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// failingPublisher 每次发布都失败的审计替身
type failingPublisher struct {
	mu     sync.Mutex
	events []*domain.AuditEvent
}

func (p *failingPublisher) Publish(ctx context.Context, event *domain.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return errors.New("broker unreachable")
}

func (p *failingPublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func testIdentity(role domain.Role) session.Identity {
	return session.Identity{
		UserID: "u1",
		Email:  "owner@example.com",
		Role:   role,
		Token:  "test-token",
	}
}

func newTestService(g domain.Gateway) (*Service, *Workspace) {
	svc := NewService(g, nil, nil, nil)
	ws := svc.Workspace(context.Background(), testIdentity(domain.RoleAdmin))
	return svc, ws
}

func listOf(n int, total int64) *domain.ApplicationList {
	items := make([]domain.Application, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.Application{
			ID:             string(rune('a' + i)),
			Type:           domain.TypeBeneficiary,
			Status:         domain.StatusPending,
			ApplicantName:  "Applicant",
			AppliedCountry: "KR",
			CreatedAt:      "Jan 1, 2025 09:00",
		})
	}
	return &domain.ApplicationList{Items: items, TotalCount: total}
}

func detailOf(id string, typ domain.ApplicantType, status domain.ApplicationStatus) *domain.ApplicationDetail {
	return &domain.ApplicationDetail{
		Application: domain.Application{
			ID:             id,
			Type:           typ,
			Status:         status,
			ApplicantName:  "Applicant",
			AppliedCountry: "KR",
			CreatedAt:      "Jan 1, 2025 09:00",
		},
	}
}

func orgDetail(id string, status domain.ApplicationStatus, memberCount int) *domain.ApplicationDetail {
	d := detailOf(id, domain.TypeOrganization, status)
	org := &domain.Organization{ID: "o1", Name: "Helping Hands"}
	for i := 0; i < memberCount; i++ {
		org.Members = append(org.Members, domain.Member{
			ID:    string(rune('A' + i)),
			Email: "member@example.com",
		})
	}
	org.Addresses = []domain.Address{{ID: "ad1", Address: "3 Charity Rd", Type: domain.AddressBusiness}}
	d.Organization = org
	return d
}

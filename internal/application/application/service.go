package application

import (
	"context"
	"sync"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/internal/session"
	"github.com/sharemeal/console/pkg/logger"
	"github.com/sharemeal/console/pkg/metrics"
)

// Service 申请工作流应用服务。每个用户持有一个工作区，
// 工作区内的状态变更全部经由本服务串行化。
type Service struct {
	gateway   domain.Gateway
	publisher domain.EventPublisher
	store     session.Store
	metrics   *metrics.Metrics

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewService 创建申请工作流服务。publisher、store、metrics 均可为 nil。
func NewService(gateway domain.Gateway, publisher domain.EventPublisher, store session.Store, m *metrics.Metrics) *Service {
	return &Service{
		gateway:    gateway,
		publisher:  publisher,
		store:      store,
		metrics:    m,
		workspaces: make(map[string]*Workspace),
	}
}

// Workspace 获取调用者的工作区：内存命中则刷新身份，
// 否则尝试从快照存储恢复，最后回退到新建。
func (s *Service) Workspace(ctx context.Context, ident session.Identity) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ws, ok := s.workspaces[ident.UserID]; ok {
		ws.mu.Lock()
		ws.ident = ident
		ws.mu.Unlock()
		return ws
	}

	if s.store != nil {
		data, found, err := s.store.Load(ctx, ident.UserID)
		if err != nil {
			logger.Warn(ctx, "workspace snapshot load failed", "user_id", ident.UserID, "error", err)
		} else if found {
			ws, err := restoreSnapshot(ident, data)
			if err != nil {
				logger.Warn(ctx, "workspace snapshot corrupt, starting fresh", "user_id", ident.UserID, "error", err)
			} else {
				s.workspaces[ident.UserID] = ws
				return ws
			}
		}
	}

	ws := newWorkspace(ident)
	s.workspaces[ident.UserID] = ws
	return ws
}

// persist 将快照写入存储，失败仅记日志
func (s *Service) persist(ctx context.Context, userID string, snapshot []byte) {
	if s.store == nil || snapshot == nil {
		return
	}
	if err := s.store.Save(ctx, userID, snapshot); err != nil {
		logger.Warn(ctx, "workspace snapshot save failed", "user_id", userID, "error", err)
	}
}

// snapshotAndPersist 在锁内导出快照，锁外落盘
func (s *Service) snapshotAndPersist(ctx context.Context, ws *Workspace) {
	ws.mu.Lock()
	userID := ws.ident.UserID
	data, err := ws.snapshotLocked()
	ws.mu.Unlock()
	if err != nil {
		logger.Warn(ctx, "workspace snapshot marshal failed", "user_id", userID, "error", err)
		return
	}
	s.persist(ctx, userID, data)
}

// MutateDraft 在工作区锁内应用一次草稿变更并持久化快照
func (s *Service) MutateDraft(ctx context.Context, ws *Workspace, fn func(*domain.Draft) error) error {
	ws.mu.Lock()
	err := fn(ws.draft)
	ws.mu.Unlock()
	if err != nil {
		return err
	}
	s.snapshotAndPersist(ctx, ws)
	return nil
}

// ResetDraft 丢弃当前草稿，重新以提交者邮箱打底
func (s *Service) ResetDraft(ctx context.Context, ws *Workspace) {
	ws.mu.Lock()
	ws.draft = domain.NewDraft(ws.ident.Email)
	ws.mu.Unlock()
	s.snapshotAndPersist(ctx, ws)
}

// Countries 返回可作为申请目的地的国家：仅保留 address 非空的条目
func (s *Service) Countries(ctx context.Context) ([]domain.Country, error) {
	all, err := s.gateway.ListSupportedCountries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Country, 0, len(all))
	for _, c := range all {
		if c.Address != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// publishAudit 发布审计事件，失败仅记日志，不阻断业务
func (s *Service) publishAudit(ctx context.Context, event *domain.AuditEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Warn(ctx, "audit event publish failed", "action", event.Action, "application_id", event.ApplicationID, "error", err)
	}
}

func (s *Service) countSubmitted(t domain.ApplicantType) {
	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.WithLabelValues(string(t)).Inc()
	}
}

func (s *Service) countReviewed(action string) {
	if s.metrics != nil {
		s.metrics.ApplicationsReviewed.WithLabelValues(action).Inc()
	}
}

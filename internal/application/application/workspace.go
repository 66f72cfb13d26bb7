package application

import (
	"encoding/json"
	"sync"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/internal/session"
)

// ContextKind 列表上下文标识
type ContextKind string

const (
	// ContextPersonal 调用者本人提交的申请
	ContextPersonal ContextKind = "personal"
	// ContextSubmitted 调用者可审阅的申请
	ContextSubmitted ContextKind = "submitted"
)

// 列表默认分页
const (
	defaultPage  = 0
	defaultLimit = 10
)

// memberPageSize 详情内成员子列表每页条数
const memberPageSize = 5

// ListContext 单个列表上下文的游标与已加载数据。
// seq 用于丢弃乱序返回的过期响应。
type ListContext struct {
	Page        int
	Limit       int
	CountryCode string
	FilterType  string
	Rows        []ApplicationRow
	Total       int64
	loaded      bool
	seq         uint64
}

// ListingState 两个互相独立的列表上下文及激活标记
type ListingState struct {
	Active    ContextKind
	Personal  ListContext
	Submitted ListContext
}

func (ls *ListingState) context(kind ContextKind) *ListContext {
	if kind == ContextSubmitted {
		return &ls.Submitted
	}
	return &ls.Personal
}

// DetailPhase 详情状态机阶段
type DetailPhase string

const (
	DetailClosed     DetailPhase = "CLOSED"
	DetailLoading    DetailPhase = "LOADING"
	DetailLoaded     DetailPhase = "LOADED"
	DetailLoadFailed DetailPhase = "LOAD_FAILED"
)

// DetailState 当前打开的申请详情状态
type DetailState struct {
	Phase      DetailPhase
	ID         string
	Detail     *domain.ApplicationDetail
	MemberPage int
	seq        uint64
}

// Workspace 单个用户的工作区：草稿、列表上下文、打开的详情与一次性提示。
// 所有变更都由持有请求的 goroutine 经互斥锁串行化，工作区内没有并发写者。
type Workspace struct {
	mu      sync.Mutex
	ident   session.Identity
	draft   *domain.Draft
	listing ListingState
	detail  DetailState
	notice  *Notification
}

func newWorkspace(ident session.Identity) *Workspace {
	return &Workspace{
		ident: ident,
		draft: domain.NewDraft(ident.Email),
		listing: ListingState{
			Active:    ContextPersonal,
			Personal:  ListContext{Page: defaultPage, Limit: defaultLimit},
			Submitted: ListContext{Page: defaultPage, Limit: defaultLimit},
		},
		detail: DetailState{Phase: DetailClosed},
	}
}

// setNotice 覆盖式写入一次性提示：后到的提示替换未读取的旧提示
func (ws *Workspace) setNotice(level, message string) {
	ws.notice = &Notification{Level: level, Message: message}
}

// ConsumeNotification 读取并清除当前提示，无提示时返回 nil
func (ws *Workspace) ConsumeNotification() *Notification {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	n := ws.notice
	ws.notice = nil
	return n
}

// workspaceSnapshot 工作区可序列化部分：草稿与列表游标。
// 已加载的行数据不持久化，恢复后按游标重新拉取。
type workspaceSnapshot struct {
	Draft     *domain.Draft  `json:"draft"`
	Active    ContextKind    `json:"activeContext"`
	Personal  cursorSnapshot `json:"personal"`
	Submitted cursorSnapshot `json:"submitted"`
}

type cursorSnapshot struct {
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	CountryCode string `json:"countryCode,omitempty"`
	FilterType  string `json:"filterType,omitempty"`
}

// snapshotLocked 导出当前工作区快照，调用方必须已持有 ws.mu
func (ws *Workspace) snapshotLocked() ([]byte, error) {
	snap := workspaceSnapshot{
		Draft:  ws.draft,
		Active: ws.listing.Active,
		Personal: cursorSnapshot{
			Page:  ws.listing.Personal.Page,
			Limit: ws.listing.Personal.Limit,
		},
		Submitted: cursorSnapshot{
			Page:        ws.listing.Submitted.Page,
			Limit:       ws.listing.Submitted.Limit,
			CountryCode: ws.listing.Submitted.CountryCode,
			FilterType:  ws.listing.Submitted.FilterType,
		},
	}
	return json.Marshal(snap)
}

// restoreSnapshot 从快照恢复工作区
func restoreSnapshot(ident session.Identity, data []byte) (*Workspace, error) {
	var snap workspaceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	ws := newWorkspace(ident)
	if snap.Draft != nil {
		ws.draft = snap.Draft
	}
	if snap.Active == ContextPersonal || snap.Active == ContextSubmitted {
		ws.listing.Active = snap.Active
	}
	restoreCursor(&ws.listing.Personal, snap.Personal)
	restoreCursor(&ws.listing.Submitted, snap.Submitted)
	return ws, nil
}

func restoreCursor(lc *ListContext, snap cursorSnapshot) {
	if snap.Limit > 0 {
		lc.Limit = snap.Limit
	}
	if snap.Page >= 0 {
		lc.Page = snap.Page
	}
	lc.CountryCode = snap.CountryCode
	lc.FilterType = snap.FilterType
}

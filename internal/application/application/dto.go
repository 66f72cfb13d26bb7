package application

import "github.com/sharemeal/console/internal/application/domain"

// ApplicationRow 列表行只读视图
type ApplicationRow struct {
	ID             string                   `json:"id"`
	Status         domain.ApplicationStatus `json:"status"`
	Type           domain.ApplicantType     `json:"type"`
	CreatedAt      string                   `json:"createdAt"`
	AppliedCountry string                   `json:"appliedCountry"`
}

// ListingView 当前激活列表上下文的只读视图
type ListingView struct {
	Context     ContextKind      `json:"context"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
	Total       int64            `json:"total"`
	Rows        []ApplicationRow `json:"rows"`
	CountryCode string           `json:"countryCode,omitempty"`
	FilterType  string           `json:"filterType,omitempty"`
}

// FileView 附件只读视图
type FileView struct {
	Name     string          `json:"name"`
	URL      string          `json:"url"`
	FileType domain.FileType `json:"fileType"`
}

// MemberView 组织成员只读视图
type MemberView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// MemberPageView 成员子列表的客户端分页视图，由已加载的成员数组切片而来
type MemberPageView struct {
	Members  []MemberView `json:"members"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
	Total    int          `json:"total"`
}

// DetailView 申请详情视图。CanApprove / CanReject 已按调用者角色算好，
// 展示层不再推导授权。
type DetailView struct {
	Phase             DetailPhase              `json:"phase"`
	ID                string                   `json:"id"`
	Status            domain.ApplicationStatus `json:"status,omitempty"`
	Type              domain.ApplicantType     `json:"type,omitempty"`
	ApplicantName     string                   `json:"applicantName,omitempty"`
	AppliedCountry    string                   `json:"appliedCountry,omitempty"`
	CreatedAt         string                   `json:"createdAt,omitempty"`
	Files             []FileView               `json:"files,omitempty"`
	PersonalAddress   string                   `json:"personalAddress,omitempty"`
	BusinessName      string                   `json:"businessName,omitempty"`
	BusinessAddresses []string                 `json:"businessAddresses,omitempty"`
	MemberPage        *MemberPageView          `json:"memberPage,omitempty"`
	CanApprove        bool                     `json:"canApprove"`
	CanReject         bool                     `json:"canReject"`
}

// Notification 一次性提示，读取后即清除；后到的提示覆盖未读取的旧提示
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// 提示级别
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

func rowsOf(items []domain.Application) []ApplicationRow {
	rows := make([]ApplicationRow, 0, len(items))
	for _, a := range items {
		rows = append(rows, ApplicationRow{
			ID:             a.ID,
			Status:         a.Status,
			Type:           a.Type,
			CreatedAt:      a.CreatedAt,
			AppliedCountry: a.AppliedCountry,
		})
	}
	return rows
}

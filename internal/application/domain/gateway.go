package domain

import "context"

// PersonalInfo 提交元数据中的个人信息块
type PersonalInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BeneficiaryMetadata 受助人提交元数据
type BeneficiaryMetadata struct {
	AppliedCountry string       `json:"appliedCountry"`
	PersonalInfo   PersonalInfo `json:"personalInfo"`
}

// MerchantMetadata 商户提交元数据
type MerchantMetadata struct {
	AppliedCountry string       `json:"appliedCountry"`
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Name           string       `json:"name"`
	Addresses      []string     `json:"addresses"`
}

// OrganizationMetadata 组织提交元数据
type OrganizationMetadata struct {
	AppliedCountry string       `json:"appliedCountry"`
	PersonalInfo   PersonalInfo `json:"personalInfo"`
	Name           string       `json:"name"`
	Addresses      []string     `json:"addresses"`
	Members        []string     `json:"members"`
}

// Submission 一次完整的 multipart 提交：按类型组装的 JSON 元数据块，
// 加上以 fileType 标签为 key 的附件集合
type Submission struct {
	Kind     ApplicantType
	Metadata any
	Files    map[FileType]FileRef
}

// Gateway 上游凭证平台的窄接口。所有调用携带调用者的 Bearer 凭证；
// 受保护端点缺少凭证属于编程错误，不作为运行时可恢复条件处理。
type Gateway interface {
	// ListPersonalApplications 列出调用者本人提交的申请
	ListPersonalApplications(ctx context.Context, token string, page, limit int) (*ApplicationList, error)
	// ListSubmittedApplications 列出调用者可审阅的申请，支持国家与类型过滤
	ListSubmittedApplications(ctx context.Context, token string, page, limit int, countryCode, filterType string) (*ApplicationList, error)
	// GetApplicationDetail 获取申请详情的完整嵌套结构
	GetApplicationDetail(ctx context.Context, token, id string) (*ApplicationDetail, error)
	// SubmitApplication 提交一次申请，multipart 编码
	SubmitApplication(ctx context.Context, token string, sub *Submission) error
	// ApproveApplication 批准申请，返回服务端消息
	ApproveApplication(ctx context.Context, token, id string) (string, error)
	// RejectApplication 驳回申请，返回服务端消息
	RejectApplication(ctx context.Context, token, id string) (string, error)
	// ListSupportedCountries 获取支持国家目录（含 address 为空的条目）
	ListSupportedCountries(ctx context.Context) ([]Country, error)
}

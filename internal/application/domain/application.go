package domain

// ApplicantType 申请类型
type ApplicantType string

const (
	TypeBeneficiary  ApplicantType = "BENEFICIARY"
	TypeMerchant     ApplicantType = "MERCHANT"
	TypeOrganization ApplicantType = "ORGANIZATION"
)

// ApplicationStatus 申请状态，仅允许 PENDING→APPROVED / PENDING→REJECTED，
// 两个终态之间可以互相覆盖（服务端幂等）
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusApproved ApplicationStatus = "APPROVED"
	StatusRejected ApplicationStatus = "REJECTED"
)

// FileType 附件类型
type FileType string

const (
	FileIdentification FileType = "IDENTIFICATION"
	FileIncome         FileType = "INCOME"
	FileLicense        FileType = "LICENSE"
	FileCertificate    FileType = "CERTIFICATE"
)

// AddressType 地址类型
type AddressType string

const (
	AddressPersonal AddressType = "PERSONAL"
	AddressBusiness AddressType = "BUSINESS"
)

// Role 调用者角色
type Role string

const (
	RoleAdmin               Role = "ADMIN"
	RoleOrganizationManager Role = "ORGANIZATION_MANAGER"
	RoleOrganizationMember  Role = "ORGANIZATION_MEMBER"
	RoleUser                Role = "USER"
)

// Application 申请实体（列表行形态，CreatedAt 已在解码时转为展示字符串）
type Application struct {
	ID             string
	Type           ApplicantType
	UserID         string
	Status         ApplicationStatus
	ApplicantName  string
	AppliedCountry string
	CreatedAt      string
}

// AttachedFile 服务端生成的申请附件，客户端只读引用
type AttachedFile struct {
	Name     string
	URL      string
	FileType FileType
}

// Address 地址实体
type Address struct {
	ID            string
	Address       string
	ApplicationID string
	Type          AddressType
}

// Member 组织成员实体
type Member struct {
	ID     string
	UserID string
	Email  string
	Name   string
}

// Organization 组织子实体，持有成员与营业地址
type Organization struct {
	ID        string
	Name      string
	Addresses []Address
	Members   []Member
}

// Merchant 商户子实体，持有营业地址
type Merchant struct {
	ID        string
	Name      string
	Addresses []Address
}

// ApplicationDetail 申请详情的完整嵌套结构。
// Organization / Merchant 对非对应类型的申请均为 nil，不做任何假定。
type ApplicationDetail struct {
	Application
	Files           []AttachedFile
	PersonalAddress *Address
	Organization    *Organization
	Merchant        *Merchant
}

// ApplicationList 分页列表结果
type ApplicationList struct {
	Items      []Application
	TotalCount int64
}

// Country 支持的国家条目，Address 为 nil 时不可作为申请目的地
type Country struct {
	CountryCode string
	CountryName string
	Address     *string
}

// ValidApplicantType 校验申请类型枚举
func ValidApplicantType(v string) bool {
	switch ApplicantType(v) {
	case TypeBeneficiary, TypeMerchant, TypeOrganization:
		return true
	}
	return false
}

// ValidStatus 校验申请状态枚举
func ValidStatus(v string) bool {
	switch ApplicationStatus(v) {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ValidFileType 校验附件类型枚举
func ValidFileType(v string) bool {
	switch FileType(v) {
	case FileIdentification, FileIncome, FileLicense, FileCertificate:
		return true
	}
	return false
}

// ValidAddressType 校验地址类型枚举
func ValidAddressType(v string) bool {
	switch AddressType(v) {
	case AddressPersonal, AddressBusiness:
		return true
	}
	return false
}

// RequiredFileType 返回申请类型对应的专属附件槽位（身份证明对所有类型必需，不在此列）
func RequiredFileType(t ApplicantType) FileType {
	switch t {
	case TypeMerchant:
		return FileLicense
	case TypeOrganization:
		return FileCertificate
	default:
		return FileIncome
	}
}

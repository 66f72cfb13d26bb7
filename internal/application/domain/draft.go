package domain

import (
	"fmt"
	"strings"
)

// FileRef 草稿中待上传的文件
type FileRef struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Content     []byte `json:"content"`
}

// PersonalDraft 个人信息分区，切换申请类型时保留
type PersonalDraft struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Identification *FileRef `json:"identification"`
}

// BeneficiaryDraft 受助人分区
type BeneficiaryDraft struct {
	Country string   `json:"country"`
	Income  *FileRef `json:"income"`
}

// MerchantDraft 商户分区
type MerchantDraft struct {
	Country   string   `json:"country"`
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	License   *FileRef `json:"license"`
}

// OrganizationDraft 组织分区。Members[0] 固定为提交者本人邮箱，不可移除
type OrganizationDraft struct {
	Country     string   `json:"country"`
	Name        string   `json:"name"`
	Addresses   []string `json:"addresses"`
	Members     []string `json:"members"`
	Certificate *FileRef `json:"certificate"`
}

// Draft 一份进行中的申请草稿，提交前仅存在于会话中。
// 切换申请类型只改变激活分区，各分区内容互不清除。
type Draft struct {
	SubmitterEmail string            `json:"submitterEmail"`
	Type           ApplicantType     `json:"type"`
	Personal       PersonalDraft     `json:"personal"`
	Beneficiary    BeneficiaryDraft  `json:"beneficiary"`
	Merchant       MerchantDraft     `json:"merchant"`
	Organization   OrganizationDraft `json:"organization"`
}

// NewDraft 创建草稿，组织成员列表以提交者邮箱打底
func NewDraft(submitterEmail string) *Draft {
	return &Draft{
		SubmitterEmail: submitterEmail,
		Type:           TypeBeneficiary,
		Merchant:       MerchantDraft{Addresses: []string{""}},
		Organization: OrganizationDraft{
			Addresses: []string{""},
			Members:   []string{submitterEmail},
		},
	}
}

// SetApplicantType 切换激活的申请类型，个人信息分区不受影响
func (d *Draft) SetApplicantType(t ApplicantType) error {
	if !ValidApplicantType(string(t)) {
		return fmt.Errorf("unknown applicant type: %s", t)
	}
	d.Type = t
	return nil
}

// SetPersonalName 更新个人姓名
func (d *Draft) SetPersonalName(v string) {
	d.Personal.Name = v
}

// SetPersonalAddress 更新个人地址
func (d *Draft) SetPersonalAddress(v string) {
	d.Personal.Address = v
}

// SetCountry 更新激活分区的目的国
func (d *Draft) SetCountry(code string) {
	switch d.Type {
	case TypeMerchant:
		d.Merchant.Country = code
	case TypeOrganization:
		d.Organization.Country = code
	default:
		d.Beneficiary.Country = code
	}
}

// SetBusinessName 更新商户/组织名称，受助人草稿无此字段
func (d *Draft) SetBusinessName(v string) error {
	switch d.Type {
	case TypeMerchant:
		d.Merchant.Name = v
	case TypeOrganization:
		d.Organization.Name = v
	default:
		return fmt.Errorf("applicant type %s has no business name", d.Type)
	}
	return nil
}

func (d *Draft) activeAddresses() (*[]string, error) {
	switch d.Type {
	case TypeMerchant:
		return &d.Merchant.Addresses, nil
	case TypeOrganization:
		return &d.Organization.Addresses, nil
	default:
		return nil, fmt.Errorf("applicant type %s has no business addresses", d.Type)
	}
}

// AddAddress 在激活分区追加一行空地址
func (d *Draft) AddAddress() error {
	list, err := d.activeAddresses()
	if err != nil {
		return err
	}
	*list = append(*list, "")
	return nil
}

// UpdateAddress 更新激活分区指定下标的地址
func (d *Draft) UpdateAddress(index int, v string) error {
	list, err := d.activeAddresses()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("address index %d out of range", index)
	}
	(*list)[index] = v
	return nil
}

// RemoveAddress 移除激活分区指定下标的地址，保持其余条目顺序
func (d *Draft) RemoveAddress(index int) error {
	list, err := d.activeAddresses()
	if err != nil {
		return err
	}
	if index < 0 || index >= len(*list) {
		return fmt.Errorf("address index %d out of range", index)
	}
	*list = append((*list)[:index], (*list)[index+1:]...)
	return nil
}

// AddMember 追加一行空成员邮箱，仅组织草稿可用
func (d *Draft) AddMember() error {
	if d.Type != TypeOrganization {
		return fmt.Errorf("applicant type %s has no members", d.Type)
	}
	d.Organization.Members = append(d.Organization.Members, "")
	return nil
}

// UpdateMember 更新指定下标的成员邮箱，下标 0 固定为提交者本人
func (d *Draft) UpdateMember(index int, v string) error {
	if d.Type != TypeOrganization {
		return fmt.Errorf("applicant type %s has no members", d.Type)
	}
	if index <= 0 || index >= len(d.Organization.Members) {
		return fmt.Errorf("member index %d out of range", index)
	}
	d.Organization.Members[index] = v
	return nil
}

// RemoveMember 移除指定下标的成员。下标 0 为提交者本人，移除是 no-op
func (d *Draft) RemoveMember(index int) error {
	if d.Type != TypeOrganization {
		return fmt.Errorf("applicant type %s has no members", d.Type)
	}
	if index < 0 || index >= len(d.Organization.Members) {
		return fmt.Errorf("member index %d out of range", index)
	}
	if index == 0 {
		return nil
	}
	d.Organization.Members = append(d.Organization.Members[:index], d.Organization.Members[index+1:]...)
	return nil
}

// fileSlot 返回指定附件槽位的存放位置，槽位必须与申请类型匹配
func (d *Draft) fileSlot(t FileType) (**FileRef, error) {
	switch t {
	case FileIdentification:
		return &d.Personal.Identification, nil
	case FileIncome:
		if d.Type != TypeBeneficiary {
			return nil, fmt.Errorf("file type %s not accepted for %s", t, d.Type)
		}
		return &d.Beneficiary.Income, nil
	case FileLicense:
		if d.Type != TypeMerchant {
			return nil, fmt.Errorf("file type %s not accepted for %s", t, d.Type)
		}
		return &d.Merchant.License, nil
	case FileCertificate:
		if d.Type != TypeOrganization {
			return nil, fmt.Errorf("file type %s not accepted for %s", t, d.Type)
		}
		return &d.Organization.Certificate, nil
	default:
		return nil, fmt.Errorf("unknown file type: %s", t)
	}
}

// AttachFile 向槽位挂载文件，已有文件被替换，每个槽位至多一个
func (d *Draft) AttachFile(t FileType, f FileRef) error {
	slot, err := d.fileSlot(t)
	if err != nil {
		return err
	}
	*slot = &f
	return nil
}

// ClearFile 清空槽位
func (d *Draft) ClearFile(t FileType) error {
	slot, err := d.fileSlot(t)
	if err != nil {
		return err
	}
	*slot = nil
	return nil
}

// TrimNonBlank 去除首尾空白并丢弃空条目，不回写原列表。
// 校验与提交载荷共用同一份去空白规则。
func TrimNonBlank(list []string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Validate 快速失败校验：按固定优先级只返回第一条被违反的规则，
// 永远不聚合多条错误。返回 nil 表示草稿可提交。
func (d *Draft) Validate() *ValidationError {
	if strings.TrimSpace(d.Personal.Address) == "" {
		return NewValidationError("Personal address cannot be empty.")
	}
	if strings.TrimSpace(d.Personal.Name) == "" {
		return NewValidationError("Personal name cannot be empty.")
	}
	if d.Personal.Identification == nil {
		return NewValidationError("Identification file is required.")
	}

	switch d.Type {
	case TypeBeneficiary:
		if strings.TrimSpace(d.Beneficiary.Country) == "" {
			return NewValidationError("Please select a country.")
		}
		if d.Beneficiary.Income == nil {
			return NewValidationError("Income file is required.")
		}
	case TypeMerchant:
		if strings.TrimSpace(d.Merchant.Country) == "" {
			return NewValidationError("Please select a country.")
		}
		if d.Merchant.License == nil {
			return NewValidationError("License file is required.")
		}
		if strings.TrimSpace(d.Merchant.Name) == "" {
			return NewValidationError("Merchant name cannot be empty.")
		}
		if len(TrimNonBlank(d.Merchant.Addresses)) == 0 {
			return NewValidationError("At least one business address is required.")
		}
	case TypeOrganization:
		if strings.TrimSpace(d.Organization.Country) == "" {
			return NewValidationError("Please select a country.")
		}
		if d.Organization.Certificate == nil {
			return NewValidationError("Certificate file is required.")
		}
		if strings.TrimSpace(d.Organization.Name) == "" {
			return NewValidationError("Organization name cannot be empty.")
		}
		if len(TrimNonBlank(d.Organization.Addresses)) == 0 {
			return NewValidationError("At least one business address is required.")
		}
	}

	return nil
}

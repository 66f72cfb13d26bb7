package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// createdAtLayout 时间戳展示格式，解码时单向转换，不支持回转
const createdAtLayout = "Jan 2, 2006 15:04"

// FormatEpoch 将毫秒时间戳转为展示字符串
func FormatEpoch(ms int64) string {
	return time.UnixMilli(ms).Local().Format(createdAtLayout)
}

// 原始线格式，仅在解码层可见

type rawApplication struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	UserID         string `json:"userId"`
	Status         string `json:"status"`
	ApplicantName  string `json:"applicantName"`
	AppliedCountry string `json:"appliedCountry"`
	CreatedAt      int64  `json:"createdAt"`
}

type rawFile struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	FileType string `json:"fileType"`
}

type rawAddress struct {
	ID            string `json:"id"`
	Address       string `json:"address"`
	ApplicationID string `json:"applicationId"`
	Type          string `json:"type"`
}

type rawMember struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type rawOrganization struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Addresses []rawAddress `json:"addresses"`
	Members   []rawMember  `json:"members"`
}

type rawMerchant struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Addresses []rawAddress `json:"addresses"`
}

type rawApplicationList struct {
	Applications      []rawApplication `json:"applications"`
	TotalApplications int64            `json:"totalApplications"`
}

type rawApplicationDetail struct {
	rawApplication
	Files           []rawFile        `json:"files"`
	PersonalAddress *rawAddress      `json:"personalAddress"`
	Organization    *rawOrganization `json:"organization"`
	Merchant        *rawMerchant     `json:"merchant"`
}

type rawCountry struct {
	CountryCode string  `json:"countryCode"`
	CountryName string  `json:"countryName"`
	Address     *string `json:"address"`
}

func decodeApplication(raw rawApplication) (Application, error) {
	if raw.ID == "" {
		return Application{}, NewDecodeError("application", "missing id")
	}
	if !ValidApplicantType(raw.Type) {
		return Application{}, NewDecodeError("application", fmt.Sprintf("invalid type %q", raw.Type))
	}
	if !ValidStatus(raw.Status) {
		return Application{}, NewDecodeError("application", fmt.Sprintf("invalid status %q", raw.Status))
	}
	if raw.CreatedAt <= 0 {
		return Application{}, NewDecodeError("application", "missing createdAt")
	}

	return Application{
		ID:             raw.ID,
		Type:           ApplicantType(raw.Type),
		UserID:         raw.UserID,
		Status:         ApplicationStatus(raw.Status),
		ApplicantName:  raw.ApplicantName,
		AppliedCountry: raw.AppliedCountry,
		CreatedAt:      FormatEpoch(raw.CreatedAt),
	}, nil
}

func decodeAddress(raw rawAddress) (Address, error) {
	if !ValidAddressType(raw.Type) {
		return Address{}, NewDecodeError("address", fmt.Sprintf("invalid type %q", raw.Type))
	}
	return Address{
		ID:            raw.ID,
		Address:       raw.Address,
		ApplicationID: raw.ApplicationID,
		Type:          AddressType(raw.Type),
	}, nil
}

func decodeAddresses(raws []rawAddress) ([]Address, error) {
	out := make([]Address, 0, len(raws))
	for _, r := range raws {
		addr, err := decodeAddress(r)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// DecodeApplicationList 解码分页列表响应。
// 合法的空结果返回空列表，与解码失败严格区分。
func DecodeApplicationList(data []byte) (*ApplicationList, error) {
	var raw rawApplicationList
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewDecodeError("applicationList", err.Error())
	}

	items := make([]Application, 0, len(raw.Applications))
	for _, r := range raw.Applications {
		app, err := decodeApplication(r)
		if err != nil {
			return nil, err
		}
		items = append(items, app)
	}

	return &ApplicationList{Items: items, TotalCount: raw.TotalApplications}, nil
}

// DecodeApplicationDetail 解码申请详情响应。
// organization / merchant 对非对应类型可缺省或为 null，解码后保持为 nil。
func DecodeApplicationDetail(data []byte) (*ApplicationDetail, error) {
	var raw rawApplicationDetail
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, NewDecodeError("applicationDetail", err.Error())
	}

	app, err := decodeApplication(raw.rawApplication)
	if err != nil {
		return nil, err
	}

	detail := &ApplicationDetail{Application: app}

	detail.Files = make([]AttachedFile, 0, len(raw.Files))
	for _, f := range raw.Files {
		if !ValidFileType(f.FileType) {
			return nil, NewDecodeError("attachedFile", fmt.Sprintf("invalid fileType %q", f.FileType))
		}
		detail.Files = append(detail.Files, AttachedFile{
			Name:     f.Name,
			URL:      f.URL,
			FileType: FileType(f.FileType),
		})
	}

	if raw.PersonalAddress != nil {
		addr, err := decodeAddress(*raw.PersonalAddress)
		if err != nil {
			return nil, err
		}
		detail.PersonalAddress = &addr
	}

	if raw.Organization != nil {
		addrs, err := decodeAddresses(raw.Organization.Addresses)
		if err != nil {
			return nil, err
		}
		members := make([]Member, 0, len(raw.Organization.Members))
		for _, m := range raw.Organization.Members {
			members = append(members, Member{ID: m.ID, UserID: m.UserID, Email: m.Email, Name: m.Name})
		}
		detail.Organization = &Organization{
			ID:        raw.Organization.ID,
			Name:      raw.Organization.Name,
			Addresses: addrs,
			Members:   members,
		}
	}

	if raw.Merchant != nil {
		addrs, err := decodeAddresses(raw.Merchant.Addresses)
		if err != nil {
			return nil, err
		}
		detail.Merchant = &Merchant{
			ID:        raw.Merchant.ID,
			Name:      raw.Merchant.Name,
			Addresses: addrs,
		}
	}

	return detail, nil
}

// DecodeCountries 解码支持国家目录响应
func DecodeCountries(data []byte) ([]Country, error) {
	var raws []rawCountry
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, NewDecodeError("countries", err.Error())
	}

	out := make([]Country, 0, len(raws))
	for _, r := range raws {
		if r.CountryCode == "" {
			return nil, NewDecodeError("countries", "missing countryCode")
		}
		out = append(out, Country{
			CountryCode: r.CountryCode,
			CountryName: r.CountryName,
			Address:     r.Address,
		})
	}
	return out, nil
}

package application

import "github.com/sharemeal/console/internal/application/domain"

// FileSlotView 附件槽位视图，只暴露文件名，不回传内容
type FileSlotView struct {
	Name string `json:"name"`
}

// DraftView 草稿只读视图。列表保留用户输入原样（含空白行），
// 去空白只发生在校验与提交载荷中。
type DraftView struct {
	Type     domain.ApplicantType `json:"type"`
	Personal struct {
		Name           string        `json:"name"`
		Address        string        `json:"address"`
		Identification *FileSlotView `json:"identification,omitempty"`
	} `json:"personal"`
	Beneficiary struct {
		Country string        `json:"country"`
		Income  *FileSlotView `json:"income,omitempty"`
	} `json:"beneficiary"`
	Merchant struct {
		Country   string        `json:"country"`
		Name      string        `json:"name"`
		Addresses []string      `json:"addresses"`
		License   *FileSlotView `json:"license,omitempty"`
	} `json:"merchant"`
	Organization struct {
		Country     string        `json:"country"`
		Name        string        `json:"name"`
		Addresses   []string      `json:"addresses"`
		Members     []string      `json:"members"`
		Certificate *FileSlotView `json:"certificate,omitempty"`
	} `json:"organization"`
}

// DraftView 返回当前草稿的只读视图
func (s *Service) DraftView(ws *Workspace) *DraftView {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	d := ws.draft
	dv := &DraftView{Type: d.Type}

	dv.Personal.Name = d.Personal.Name
	dv.Personal.Address = d.Personal.Address
	dv.Personal.Identification = slotView(d.Personal.Identification)

	dv.Beneficiary.Country = d.Beneficiary.Country
	dv.Beneficiary.Income = slotView(d.Beneficiary.Income)

	dv.Merchant.Country = d.Merchant.Country
	dv.Merchant.Name = d.Merchant.Name
	dv.Merchant.Addresses = append([]string(nil), d.Merchant.Addresses...)
	dv.Merchant.License = slotView(d.Merchant.License)

	dv.Organization.Country = d.Organization.Country
	dv.Organization.Name = d.Organization.Name
	dv.Organization.Addresses = append([]string(nil), d.Organization.Addresses...)
	dv.Organization.Members = append([]string(nil), d.Organization.Members...)
	dv.Organization.Certificate = slotView(d.Organization.Certificate)

	return dv
}

func slotView(f *domain.FileRef) *FileSlotView {
	if f == nil {
		return nil
	}
	return &FileSlotView{Name: f.Name}
}

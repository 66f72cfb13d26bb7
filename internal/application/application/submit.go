package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/pkg/logger"
)

// SubmitDraft 校验并提交当前草稿。校验失败在任何网络调用之前返回，
// 一次只暴露第一条错误；传输失败提取结构化 {code, message} 并把
// message 原样提示给用户，不重试。成功返回 true，草稿是否清空由
// 调用方显式决定。
func (s *Service) SubmitDraft(ctx context.Context, ws *Workspace) bool {
	ws.mu.Lock()
	draft := ws.draft
	if verr := draft.Validate(); verr != nil {
		ws.setNotice(NoticeError, verr.Message)
		ws.mu.Unlock()
		return false
	}

	sub := buildSubmission(draft)
	token := ws.ident.Token
	actorID := ws.ident.UserID
	actorRole := ws.ident.Role
	ws.mu.Unlock()

	if err := s.gateway.SubmitApplication(ctx, token, sub); err != nil {
		logger.Warn(ctx, "application submit failed", "type", sub.Kind, "error", err)
		ws.mu.Lock()
		ws.setNotice(NoticeError, domain.UserMessage(err))
		ws.mu.Unlock()
		return false
	}

	ws.mu.Lock()
	ws.setNotice(NoticeSuccess, "Application submitted successfully.")
	ws.mu.Unlock()

	s.countSubmitted(sub.Kind)
	s.publishAudit(ctx, &domain.AuditEvent{
		EventID:       uuid.NewString(),
		Action:        domain.AuditSubmitted,
		ApplicantType: sub.Kind,
		ActorID:       actorID,
		ActorRole:     actorRole,
		OccurredAt:    time.Now(),
	})

	return true
}

// buildSubmission 由已通过校验的草稿组装提交载荷：
// 字符串字段去除首尾空白，地址/成员列表丢弃去空白后为空的条目，
// 附件按其 fileType 标签归位。草稿本身不被修改。
func buildSubmission(d *domain.Draft) *domain.Submission {
	personal := domain.PersonalInfo{
		Name:    strings.TrimSpace(d.Personal.Name),
		Address: strings.TrimSpace(d.Personal.Address),
	}

	files := map[domain.FileType]domain.FileRef{
		domain.FileIdentification: *d.Personal.Identification,
	}

	sub := &domain.Submission{Kind: d.Type, Files: files}

	switch d.Type {
	case domain.TypeMerchant:
		files[domain.FileLicense] = *d.Merchant.License
		sub.Metadata = domain.MerchantMetadata{
			AppliedCountry: strings.TrimSpace(d.Merchant.Country),
			PersonalInfo:   personal,
			Name:           strings.TrimSpace(d.Merchant.Name),
			Addresses:      domain.TrimNonBlank(d.Merchant.Addresses),
		}
	case domain.TypeOrganization:
		files[domain.FileCertificate] = *d.Organization.Certificate
		sub.Metadata = domain.OrganizationMetadata{
			AppliedCountry: strings.TrimSpace(d.Organization.Country),
			PersonalInfo:   personal,
			Name:           strings.TrimSpace(d.Organization.Name),
			Addresses:      domain.TrimNonBlank(d.Organization.Addresses),
			Members:        domain.TrimNonBlank(d.Organization.Members),
		}
	default:
		files[domain.FileIncome] = *d.Beneficiary.Income
		sub.Metadata = domain.BeneficiaryMetadata{
			AppliedCountry: strings.TrimSpace(d.Beneficiary.Country),
			PersonalInfo:   personal,
		}
	}

	return sub
}

package domain

import (
	"context"
	"time"
)

// 审计事件动作
const (
	AuditSubmitted = "SUBMITTED"
	AuditApproved  = "APPROVED"
	AuditRejected  = "REJECTED"
)

// AuditEvent 申请工作流审计事件
type AuditEvent struct {
	EventID       string        `json:"eventId"`
	Action        string        `json:"action"`
	ApplicationID string        `json:"applicationId,omitempty"`
	ApplicantType ApplicantType `json:"applicantType,omitempty"`
	ActorID       string        `json:"actorId"`
	ActorRole     Role          `json:"actorRole,omitempty"`
	OccurredAt    time.Time     `json:"occurredAt"`
}

// EventPublisher 审计事件发布者。发布失败不得阻断业务流程
type EventPublisher interface {
	Publish(ctx context.Context, event *AuditEvent) error
}

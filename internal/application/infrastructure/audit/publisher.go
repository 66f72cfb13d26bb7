// Package audit 发布申请工作流审计事件
package audit

import (
	"context"

	"github.com/sharemeal/console/internal/application/domain"
	"github.com/sharemeal/console/pkg/logger"
	"github.com/sharemeal/console/pkg/mq"
)

// KafkaPublisher 把审计事件写入 Kafka，key 取申请 ID 以保证同一申请有序
type KafkaPublisher struct {
	producer *mq.KafkaProducer
	topic    string
}

// NewKafkaPublisher 创建 Kafka 审计发布者
func NewKafkaPublisher(producer *mq.KafkaProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

// Publish 发布审计事件
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.AuditEvent) error {
	key := event.ApplicationID
	if key == "" {
		key = event.ActorID
	}
	return p.producer.SendMessage(ctx, p.topic, key, event)
}

// LogPublisher 无 Kafka 时的降级实现，只落日志
type LogPublisher struct{}

// Publish 记录审计事件日志
func (p *LogPublisher) Publish(ctx context.Context, event *domain.AuditEvent) error {
	logger.Info(ctx, "audit event",
		"event_id", event.EventID,
		"action", event.Action,
		"application_id", event.ApplicationID,
		"applicant_type", event.ApplicantType,
		"actor_id", event.ActorID,
		"actor_role", event.ActorRole,
	)
	return nil
}

var (
	_ domain.EventPublisher = (*KafkaPublisher)(nil)
	_ domain.EventPublisher = (*LogPublisher)(nil)
)

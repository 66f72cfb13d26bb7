// Package session 定义显式传递的会话上下文：调用者身份与工作区快照存储。
// 替代散落在各组件中的全局可变状态，读写能力通过注入获得。
package session

import (
	"context"

	"github.com/sharemeal/console/internal/application/domain"
)

// Identity 每次请求由鉴权中间件解析出的调用者身份。
// Token 为转发给上游平台的 Bearer 凭证。
type Identity struct {
	UserID string
	Email  string
	Role   domain.Role
	Token  string
}

// Store 工作区快照存储，进程重启或会话迁移后恢复草稿与列表游标。
// 快照为不透明字节串，序列化边界由调用方掌握。
type Store interface {
	Save(ctx context.Context, userID string, snapshot []byte) error
	Load(ctx context.Context, userID string) ([]byte, bool, error)
	Delete(ctx context.Context, userID string) error
}

package model

import (
	"time"
)

// Conversation 每个访客一份会话文档：状态 + 按时间追加的消息记录。
// visitor_id 唯一索引；created_at 挂 TTL 索引做保留期清理。
// 注意：保留期从 created_at 起算，活跃中的长会话到期同样会被清掉（沿用既有语义，勿改成 updated_at）。
type Conversation struct {
	VisitorID string    `bson:"visitor_id" json:"visitorId"`
	Status    Status    `bson:"status" json:"status"`
	Messages  []Message `bson:"messages" json:"messages"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

func (c *Conversation) GetTableName() string {
	return "conversations"
}

// Message 追加后不再改动；id 在追加时生成，消息生命周期内稳定
type Message struct {
	ID        string    `bson:"id" json:"id"`
	Sender    string    `bson:"sender" json:"sender"` // visitor | operator
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

const (
	SenderVisitor  = "visitor"
	SenderOperator = "operator"
)

// MaxContentLen 消息正文上限（字符数）
const MaxContentLen = 1000

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"LiveDesk/module/chat/model"
	"LiveDesk/tools/errs"
)

// MemRepo 内存实现，语义对齐 Repo：追加是持锁原子操作，单测与本地联调用。
type MemRepo struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation
}

func NewMemRepo() *MemRepo {
	return &MemRepo{convs: make(map[string]*model.Conversation)}
}

func cloneConv(c *model.Conversation) *model.Conversation {
	out := *c
	out.Messages = make([]model.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

func (m *MemRepo) UpsertPending(ctx context.Context, visitorID string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[visitorID]; ok {
		return cloneConv(c), nil
	}
	now := time.Now()
	c := &model.Conversation{
		VisitorID: visitorID,
		Status:    model.StatusPending,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.convs[visitorID] = c
	return cloneConv(c), nil
}

func (m *MemRepo) AppendMessage(ctx context.Context, visitorID string, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[visitorID]
	if !ok {
		return errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	return nil
}

func (m *MemRepo) SetStatus(ctx context.Context, visitorID string, st model.Status) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[visitorID]
	if !ok {
		return nil, errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
	}
	c.Status = st
	c.UpdatedAt = time.Now()
	return cloneConv(c), nil
}

func (m *MemRepo) Get(ctx context.Context, visitorID string) (*model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.convs[visitorID]
	if !ok {
		return nil, errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
	}
	return cloneConv(c), nil
}

func (m *MemRepo) ListOpen(ctx context.Context) ([]model.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Conversation, 0, len(m.convs))
	for _, c := range m.convs {
		if c.Status == model.StatusClosed {
			continue
		}
		out = append(out, *cloneConv(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

package store

import (
	"context"
	"time"

	"LiveDesk/module/chat/model"
	"LiveDesk/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repo mongo 实现。并发正确性全靠单文档原子操作：
// 追加消息是 $push（不是读改写），同一访客的两次并发追加都不会丢。
type Repo struct {
	DB *mongo.Database
}

func ptr[T any](v T) *T { return &v }

func (r *Repo) coll() *mongo.Collection {
	return r.DB.Collection((&model.Conversation{}).GetTableName())
}

// EnsureIndexes 启动时建：visitor_id 唯一索引 + created_at TTL 索引
func (r *Repo) EnsureIndexes(ctx context.Context, retention time.Duration) error {
	_, err := r.coll().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "visitor_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(retention.Seconds())),
		},
	})
	return errs.WrapMsg(err, "ensure conversation indexes")
}

// UpsertPending 首次见到访客时建档（pending、空消息记录）；已存在则原样返回，
// status 绝不被这里重置。
func (r *Repo) UpsertPending(ctx context.Context, visitorID string) (*model.Conversation, error) {
	now := time.Now()
	after := options.After
	res := r.coll().FindOneAndUpdate(ctx,
		bson.M{"visitor_id": visitorID},
		bson.M{"$setOnInsert": bson.M{
			"visitor_id": visitorID,
			"status":     model.StatusPending,
			"messages":   []model.Message{},
			"created_at": now,
			"updated_at": now,
		}},
		&options.FindOneAndUpdateOptions{Upsert: ptr(true), ReturnDocument: &after},
	)
	conv := &model.Conversation{}
	if err := res.Decode(conv); err != nil {
		return nil, errs.WrapMsg(err, "upsert pending conversation")
	}
	return conv, nil
}

// AppendMessage 原子追加；访客没建过档则报 ErrConversationNotFound（append 不建档）
func (r *Repo) AppendMessage(ctx context.Context, visitorID string, msg model.Message) error {
	res, err := r.coll().UpdateOne(ctx,
		bson.M{"visitor_id": visitorID},
		bson.M{
			"$push": bson.M{"messages": msg},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return errs.WrapMsg(err, "append message")
	}
	if res.MatchedCount == 0 {
		return errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
	}
	return nil
}

// SetStatus 无条件写状态（不守卫逆向迁移，守卫在 model.Status.Next），返回更新后的文档
func (r *Repo) SetStatus(ctx context.Context, visitorID string, st model.Status) (*model.Conversation, error) {
	after := options.After
	res := r.coll().FindOneAndUpdate(ctx,
		bson.M{"visitor_id": visitorID},
		bson.M{"$set": bson.M{"status": st, "updated_at": time.Now()}},
		&options.FindOneAndUpdateOptions{ReturnDocument: &after},
	)
	conv := &model.Conversation{}
	if err := res.Decode(conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
		}
		return nil, errs.WrapMsg(err, "set status")
	}
	return conv, nil
}

// Get 按访客取会话
func (r *Repo) Get(ctx context.Context, visitorID string) (*model.Conversation, error) {
	res := r.coll().FindOne(ctx, bson.M{"visitor_id": visitorID})
	conv := &model.Conversation{}
	if err := res.Decode(conv); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrConversationNotFound.WithDetail("visitor " + visitorID)
		}
		return nil, errs.WrapMsg(err, "get conversation")
	}
	return conv, nil
}

// ListOpen 客服刚连上时要看的未关闭会话（pending/active），按创建时间排
func (r *Repo) ListOpen(ctx context.Context) ([]model.Conversation, error) {
	cur, err := r.coll().Find(ctx,
		bson.M{"status": bson.M{"$ne": model.StatusClosed}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "list open conversations")
	}
	defer cur.Close(ctx)

	var out []model.Conversation
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode open conversations")
	}
	return out, nil
}

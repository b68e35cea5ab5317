package feed

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/export"
)

// Options 配置 Service。
type Options struct {
	Seeds bool             // 在信息流中混入示例梗图
	Now   func() time.Time // 测试可替换
}

// Service 实现发布、信息流与点赞规则，存储细节交给 Store 与 ImageSink。
type Service struct {
	store Store
	sink  ImageSink
	opts  Options
}

// NewService creates a feed service. A nil sink stores images as data URLs.
func NewService(store Store, sink ImageSink, opts Options) *Service {
	if sink == nil {
		sink = DataURLSink{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, sink: sink, opts: opts}
}

// Post 发布一张渲染好的 PNG。图片必须能被解码。
func (s *Service) Post(ctx context.Context, userID string, png []byte) (*Meme, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if _, err := export.DecodeImage(png); err != nil {
		return nil, err
	}
	return s.post(ctx, userID, png)
}

// PostImage 发布一张已解码的图片：只编码一次 PNG，不再重复校验。
func (s *Service) PostImage(ctx context.Context, userID string, img image.Image) (*Meme, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if img == nil {
		return nil, export.ErrDecode
	}
	png, err := export.EncodePNG(img)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, userID, png)
}

func (s *Service) post(ctx context.Context, userID string, png []byte) (*Meme, error) {
	id := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{"meme_id": id, "user_id": userID, "size": len(png)})

	url, err := s.sink.Put(ctx, id, png)
	if err != nil {
		log.WithError(err).Error("Failed to store meme image")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	meme := &Meme{
		ID:        id,
		ImageURL:  url,
		CreatedAt: s.opts.Now().UnixMilli(),
		UserID:    userID,
	}
	if err := s.store.CreateMeme(ctx, meme); err != nil {
		log.WithError(err).Error("Failed to create meme")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	log.Info("Meme posted")
	return meme, nil
}

// Feed 返回排序后的信息流。
func (s *Service) Feed(ctx context.Context, by Sort) ([]*Meme, error) {
	memes, err := s.store.ListMemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if s.opts.Seeds {
		memes = MergeSeeds(memes)
	}
	SortMemes(memes, by)
	return memes, nil
}

// Upvote 为 userID 点赞 memeID，返回更新后的记录。
// 未登录、自己的梗图、示例梗图、重复点赞都会被拒绝。
func (s *Service) Upvote(ctx context.Context, memeID, userID string) (*Meme, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	log := logrus.WithFields(logrus.Fields{"meme_id": memeID, "user_id": userID})

	meme, err := s.store.GetMeme(ctx, memeID)
	switch {
	case errors.Is(err, ErrNotFound) && s.opts.Seeds && IsSeed(memeID):
		return nil, ErrSeedReadOnly
	case errors.Is(err, ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if meme.UserID == userID {
		return nil, ErrOwnMeme
	}

	err = s.store.Upvote(ctx, &Upvote{ID: ulid.Make().String(), MemeID: memeID, UserID: userID})
	switch {
	case errors.Is(err, ErrAlreadyUpvoted), errors.Is(err, ErrNotFound):
		return nil, err
	case err != nil:
		log.WithError(err).Error("Failed to upvote")
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	log.Debug("Meme upvoted")

	meme, err = s.store.GetMeme(ctx, memeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return meme, nil
}

// HasUpvoted 查询点赞状态；没有用户或示例梗图恒为 false。
func (s *Service) HasUpvoted(ctx context.Context, memeID, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	ok, err := s.store.HasUpvoted(ctx, memeID, userID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return ok, nil
}

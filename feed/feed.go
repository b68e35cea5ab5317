package feed

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/ByLCY/memecanvas/export"
)

var (
	ErrPersistence    = errors.New("feed: persistence failure")
	ErrNotFound       = errors.New("feed: meme not found")
	ErrAlreadyUpvoted = errors.New("feed: already upvoted")
	ErrOwnMeme        = errors.New("feed: cannot upvote own meme")
	ErrSeedReadOnly   = errors.New("feed: sample memes are read-only")
	ErrNoUser         = errors.New("feed: no authenticated user")
)

// Meme 是一条已发布的梗图记录。CreatedAt 为毫秒时间戳。
type Meme struct {
	ID          string `json:"id"`
	ImageURL    string `json:"imageUrl"`
	CreatedAt   int64  `json:"createdAt"`
	UserID      string `json:"userId"`
	UpvoteCount int    `json:"upvoteCount"`
	Seed        bool   `json:"isSeed,omitempty"`
}

// Upvote 记录某个用户对某条梗图的一次点赞，(MemeID, UserID) 唯一。
type Upvote struct {
	ID     string `json:"id"`
	MemeID string `json:"memeId"`
	UserID string `json:"userId"`
}

// Store 是梗图与点赞的持久化接口。
// Upvote 必须原子地创建点赞记录并把 UpvoteCount 加一；重复点赞返回 ErrAlreadyUpvoted，
// 梗图不存在返回 ErrNotFound。
type Store interface {
	CreateMeme(ctx context.Context, meme *Meme) error
	ListMemes(ctx context.Context) ([]*Meme, error)
	GetMeme(ctx context.Context, id string) (*Meme, error)
	HasUpvoted(ctx context.Context, memeID, userID string) (bool, error)
	Upvote(ctx context.Context, upvote *Upvote) error
}

// ImageSink 把导出的 PNG 存到某处，返回写入 Meme.ImageURL 的地址。
type ImageSink interface {
	Put(ctx context.Context, id string, png []byte) (string, error)
}

// DataURLSink 直接把图片内嵌为 data URL，不依赖外部存储。
type DataURLSink struct{}

func (DataURLSink) Put(_ context.Context, _ string, png []byte) (string, error) {
	return export.PNGDataURL(png), nil
}

// Sort 是信息流的排序方式。
type Sort string

const (
	SortNewest  Sort = "newest"
	SortUpvotes Sort = "upvotes"
)

// ParseSort maps a query value to a Sort, defaulting to newest.
func ParseSort(s string) Sort {
	if Sort(s) == SortUpvotes {
		return SortUpvotes
	}
	return SortNewest
}

// SortMemes 原地排序：newest 按 CreatedAt 降序，upvotes 按 UpvoteCount 降序。相同键保持原顺序。
func SortMemes(memes []*Meme, by Sort) {
	sort.SliceStable(memes, func(i, j int) bool {
		if by == SortUpvotes {
			return memes[i].UpvoteCount > memes[j].UpvoteCount
		}
		return memes[i].CreatedAt > memes[j].CreatedAt
	})
}

const seedUser = "seed-user"

func seedTime(value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t.UnixMilli()
}

var seeds = []Meme{
	{ID: "seed-cartoon-puppy", ImageURL: "/templates/cartoon_puppy.jpg", CreatedAt: seedTime("2024-07-04T12:00:00Z"), UpvoteCount: 87},
	{ID: "seed-dog-bird", ImageURL: "/templates/dog_bird.jpg", CreatedAt: seedTime("2024-06-18T09:30:00Z"), UpvoteCount: 42},
	{ID: "seed-man-sofa", ImageURL: "/templates/man_sofa.png", CreatedAt: seedTime("2024-05-22T15:45:00Z"), UpvoteCount: 63},
	{ID: "seed-puppy-sweater", ImageURL: "/templates/puppy-lying-sweater.jpg", CreatedAt: seedTime("2024-08-11T18:20:00Z"), UpvoteCount: 51},
}

// SeedMemes 返回内置示例梗图的副本。
func SeedMemes() []*Meme {
	out := make([]*Meme, len(seeds))
	for i := range seeds {
		m := seeds[i]
		m.UserID = seedUser
		m.Seed = true
		out[i] = &m
	}
	return out
}

// IsSeed reports whether id names a built-in sample.
func IsSeed(id string) bool {
	for i := range seeds {
		if seeds[i].ID == id {
			return true
		}
	}
	return false
}

// MergeSeeds 返回示例与已存储梗图的合集；已存储同 id 的示例被隐藏。
func MergeSeeds(stored []*Meme) []*Meme {
	existing := make(map[string]struct{}, len(stored))
	for _, m := range stored {
		existing[m.ID] = struct{}{}
	}
	out := make([]*Meme, 0, len(stored)+len(seeds))
	for _, seed := range SeedMemes() {
		if _, ok := existing[seed.ID]; !ok {
			out = append(out, seed)
		}
	}
	return append(out, stored...)
}

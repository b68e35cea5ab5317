package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync/atomic"

	"github.com/ByLCY/memecanvas/layout"
	"github.com/ByLCY/memecanvas/renderer"
)

var (
	// ErrPostInFlight 表示已有一次发布尚未结束。
	ErrPostInFlight = errors.New("session: post already in flight")
	// ErrNoUser 表示没有已认证用户，发布被禁用。
	ErrNoUser = errors.New("session: no authenticated user")
)

// Templates 是内置模板图片的路径，顺序即画廊顺序。
var Templates = []string{
	"templates/cartoon_puppy.jpg",
	"templates/dog_bird.jpg",
	"templates/man_sofa.png",
	"templates/puppy-lying-sweater.jpg",
}

// Target 描述 pointer-down 事件落在文本框的哪个部分。
type Target int

const (
	// TargetBox 是文本框本身。
	TargetBox Target = iota
	// TargetContent 是文本框内的文字元素。
	TargetContent
	// TargetOther 是其他子元素（例如删除按钮），不会开始拖动。
	TargetOther
)

// Publisher 接收渲染好的画布并完成持久化。
type Publisher func(ctx context.Context, userID string, surface *image.RGBA) error

// Options 配置会话依赖。
type Options struct {
	Renderer renderer.Renderer // 用于 Render/Post；同时作为默认 Sizer 的测量器
	Family   string
	Sizer    BoxSizer
}

// container 是文本框容器在页面坐标中的位置与尺寸。
type container struct {
	origin        layout.Point
	width, height float64
}

// Session 持有一次编辑的全部状态：底图、文本框、计数器、当前选中项与发布标志。
// 所有方法（包括 Post）都应在同一个 UI goroutine 中调用；Post 只把渲染好的
// 画布交给后台 goroutine，之后不再读取会话状态。
type Session struct {
	opts Options

	image            *layout.Image
	selectedTemplate string
	boxes            []layout.TextBox
	nextID           int
	active           int
	hasActive        bool
	fontSize         int

	container container
	rects     layout.StaticLayout

	posting atomic.Bool
}

// New creates an empty session.
func New(opts Options) *Session {
	if opts.Sizer == nil {
		if opts.Renderer != nil {
			opts.Sizer = MeasuredSizer{Measurer: opts.Renderer, Family: opts.Family}
		} else {
			opts.Sizer = FixedSizer{Width: 100, Height: 30}
		}
	}
	return &Session{
		opts:     opts,
		fontSize: layout.DefaultFontSize,
		rects:    layout.StaticLayout{},
	}
}

// LoadImage 替换底图，清空所有文本框与选中状态。template 为空表示用户上传。
// 容器尺寸同步为预览尺寸，原点保持不变。
func (s *Session) LoadImage(img *layout.Image, template string) {
	if img == nil {
		return
	}
	s.image = img
	s.selectedTemplate = template
	s.boxes = nil
	s.hasActive = false
	s.rects = layout.StaticLayout{}
	s.container.width = float64(img.DisplayWidth)
	s.container.height = float64(img.DisplayHeight)
}

// Image returns the current base image, or nil.
func (s *Session) Image() *layout.Image { return s.image }

// SelectedTemplate returns the template path of the current image, "" for uploads.
func (s *Session) SelectedTemplate() string { return s.selectedTemplate }

// SetContainer 记录容器在页面坐标中的原点与尺寸（窗口布局变化时调用）。
// 已放置的文本框不会因此重新定位。
func (s *Session) SetContainer(origin layout.Point, width, height float64) {
	s.container = container{origin: origin, width: width, height: height}
}

// SetBoxRect 记录文本框的实际显示矩形（相对容器）。合成器优先使用它。
func (s *Session) SetBoxRect(id int, r layout.Rect) {
	if _, ok := s.index(id); !ok {
		return
	}
	s.rects[id] = r
}

// BoxRect implements layout.LayoutProvider.
func (s *Session) BoxRect(id int) (layout.Rect, bool) {
	return s.rects.BoxRect(id)
}

// AddText 创建文本框：文字必须非空白且已加载底图，否则静默忽略。
// 新文本框使用当前字号，居中放置并成为选中项。
func (s *Session) AddText(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" || s.image == nil {
		return 0, false
	}
	id := s.nextID
	s.nextID++

	box := layout.TextBox{ID: id, Text: text, FontSize: s.fontSize}
	w, h := s.opts.Sizer.BoxSize(box)
	box.X = s.container.width/2 - w/2
	box.Y = s.container.height/2 - h/2

	s.boxes = append(s.boxes, box)
	s.active, s.hasActive = id, true
	return id, true
}

// PointerDown 在文本框上按下指针：记录偏移、选中并进入拖动状态。
// pointer 为页面坐标。落在其他子元素上时忽略。
func (s *Session) PointerDown(id int, target Target, pointer layout.Point) {
	if target != TargetBox && target != TargetContent {
		return
	}
	i, ok := s.index(id)
	if !ok {
		return
	}
	for j := range s.boxes {
		s.boxes[j].Dragging = false
	}
	s.selectIndex(i)
	box := &s.boxes[i]
	box.DragOffset = layout.Point{
		X: pointer.X - (s.container.origin.X + box.X),
		Y: pointer.Y - (s.container.origin.Y + box.Y),
	}
	box.Dragging = true
}

// PointerMove 移动正在拖动的文本框，并夹紧在容器内。没有拖动时不做任何事。
func (s *Session) PointerMove(pointer layout.Point) {
	i, ok := s.draggingIndex()
	if !ok {
		return
	}
	box := &s.boxes[i]
	w, h := s.boxSize(*box)

	x := pointer.X - s.container.origin.X - box.DragOffset.X
	y := pointer.Y - s.container.origin.Y - box.DragOffset.Y
	box.X = math.Max(0, math.Min(x, s.container.width-w))
	box.Y = math.Max(0, math.Min(y, s.container.height-h))

	if r, ok := s.rects[box.ID]; ok {
		r.X, r.Y = box.X, box.Y
		s.rects[box.ID] = r
	}
}

// PointerUp 结束拖动，与指针位置无关。
func (s *Session) PointerUp() {
	if i, ok := s.draggingIndex(); ok {
		s.boxes[i].Dragging = false
	}
}

// Click 选中文本框（不移动）。拖动中的文本框忽略点击。
func (s *Session) Click(id int) {
	i, ok := s.index(id)
	if !ok || s.boxes[i].Dragging {
		return
	}
	s.selectIndex(i)
}

// Delete 删除文本框；若删除的是选中项，改选最后一个剩余文本框。
func (s *Session) Delete(id int) {
	i, ok := s.index(id)
	if !ok {
		return
	}
	s.boxes = append(s.boxes[:i], s.boxes[i+1:]...)
	delete(s.rects, id)
	if s.hasActive && s.active == id {
		if n := len(s.boxes); n > 0 {
			s.active = s.boxes[n-1].ID
		} else {
			s.hasActive = false
		}
	}
}

// DeleteActive handles the delete key.
func (s *Session) DeleteActive() {
	if s.hasActive {
		s.Delete(s.active)
	}
}

// SetFontSize 设置字号控件的值（夹紧到 [12,120]）并应用到选中的文本框，返回实际值。
func (s *Session) SetFontSize(size int) int {
	s.fontSize = layout.ClampFontSize(size)
	if i, ok := s.activeIndex(); ok {
		s.boxes[i].FontSize = s.fontSize
	}
	return s.fontSize
}

// SetFontSizeInput 处理数字输入框的文本；无法解析时保持原值。
func (s *Session) SetFontSizeInput(input string) int {
	return s.SetFontSize(layout.ParseFontSize(input, s.fontSize))
}

// FontSize is the value shown by both the slider and the numeric field.
func (s *Session) FontSize() int { return s.fontSize }

// Active returns the selected box id.
func (s *Session) Active() (int, bool) { return s.active, s.hasActive }

// Boxes returns a copy of the boxes in insertion order.
func (s *Session) Boxes() []layout.TextBox {
	out := make([]layout.TextBox, len(s.boxes))
	copy(out, s.boxes)
	return out
}

// Box returns the box with the given id.
func (s *Session) Box(id int) (layout.TextBox, bool) {
	i, ok := s.index(id)
	if !ok {
		return layout.TextBox{}, false
	}
	return s.boxes[i], true
}

// Scene 返回当前状态的快照，画布尺寸取预览尺寸；未加载底图时返回 nil。
func (s *Session) Scene() *layout.Scene {
	if s.image == nil {
		return nil
	}
	rects := make(layout.StaticLayout, len(s.rects))
	for id, r := range s.rects {
		rects[id] = r
	}
	return &layout.Scene{
		Image:  s.image,
		Boxes:  s.Boxes(),
		Width:  s.image.DisplayWidth,
		Height: s.image.DisplayHeight,
		Family: s.opts.Family,
		Layout: rects,
	}
}

// Render composites the current scene.
func (s *Session) Render() (*image.RGBA, error) {
	scene := s.Scene()
	if scene == nil {
		return nil, layout.ErrInvalidInput
	}
	if s.opts.Renderer == nil {
		return nil, fmt.Errorf("会话未配置渲染器")
	}
	return s.opts.Renderer.Render(scene)
}

// CanPost reports whether the post action is enabled.
func (s *Session) CanPost(userID string) bool {
	return userID != "" && s.image != nil && len(s.boxes) > 0 && !s.posting.Load()
}

// Post 在调用方 goroutine 中渲染当前画布，然后在后台 goroutine 中调用 publish。
// 同步阶段的错误（无用户、无底图或文本框、已有发布在进行、渲染失败）直接返回；
// publish 的结果写入返回的 channel（缓冲为 1），写入前释放发布标志，失败后可重试。
// 发布期间可以继续编辑：后台只持有渲染结果，不访问会话。
func (s *Session) Post(ctx context.Context, userID string, publish Publisher) (<-chan error, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if s.image == nil || len(s.boxes) == 0 || publish == nil {
		return nil, layout.ErrInvalidInput
	}
	if !s.posting.CompareAndSwap(false, true) {
		return nil, ErrPostInFlight
	}

	surface, err := s.Render()
	if err != nil {
		s.posting.Store(false)
		return nil, fmt.Errorf("渲染失败: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		err := publish(ctx, userID, surface)
		if err != nil {
			err = fmt.Errorf("发布失败: %w", err)
		}
		s.posting.Store(false)
		done <- err
	}()
	return done, nil
}

// Posting reports whether a post is in flight.
func (s *Session) Posting() bool { return s.posting.Load() }

func (s *Session) boxSize(box layout.TextBox) (float64, float64) {
	if r, ok := s.rects[box.ID]; ok && r.Width > 0 {
		return r.Width, r.Height
	}
	return s.opts.Sizer.BoxSize(box)
}

func (s *Session) selectIndex(i int) {
	s.active, s.hasActive = s.boxes[i].ID, true
	s.fontSize = s.boxes[i].FontSize
}

func (s *Session) index(id int) (int, bool) {
	for i := range s.boxes {
		if s.boxes[i].ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Session) activeIndex() (int, bool) {
	if !s.hasActive {
		return 0, false
	}
	return s.index(s.active)
}

func (s *Session) draggingIndex() (int, bool) {
	for i := range s.boxes {
		if s.boxes[i].Dragging {
			return i, true
		}
	}
	return 0, false
}

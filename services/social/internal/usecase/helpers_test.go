package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"chronofeed/pkg/kv"
	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/repo/persistent"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeBlobs struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failUpload error
	failDelete error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (f *fakeBlobs) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload != nil {
		return "", f.failUpload
	}
	f.objects[key] = data
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobs) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type publishedEvent struct {
	key  string
	data map[string]string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{key: key, data: data})
	return p.err
}

func (p *recordingPublisher) byKey(key string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.key == key {
			out = append(out, e)
		}
	}
	return out
}

type recordingLive struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
}

func (l *recordingLive) Publish(_ context.Context, topic string, payload []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.topics = append(l.topics, topic)
	l.payloads = append(l.payloads, payload)
	return nil
}

type testEnv struct {
	store    kv.Store
	profiles persistent.ProfileRepository
	graph    persistent.GraphRepository
	posts    persistent.PostRepository
	comments persistent.CommentRepository
	inbox    persistent.NotificationRepository
	blobs    *fakeBlobs
	pub      *recordingPublisher
	live     *recordingLive

	profileUC ProfileUseCase
	postUC    PostUseCase
	commentUC CommentUseCase
	feedUC    FeedUseCase
	exploreUC ExploreUseCase
	notifyUC  NotificationUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLimits(t, DefaultLimits())
}

func newTestEnvWithLimits(t *testing.T, limits Limits) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := kv.NewRedisStore(client)
	log := logger.New()

	env := &testEnv{
		store:    store,
		profiles: persistent.NewProfileRepository(store),
		graph:    persistent.NewGraphRepository(store),
		posts:    persistent.NewPostRepository(store),
		comments: persistent.NewCommentRepository(store),
		inbox:    persistent.NewNotificationRepository(store),
		blobs:    newFakeBlobs(),
		pub:      &recordingPublisher{},
		live:     &recordingLive{},
	}
	env.profileUC = NewProfileUseCase(env.profiles, env.graph, env.blobs, env.pub, limits, log)
	env.postUC = NewPostUseCase(env.posts, env.comments, env.profiles, env.blobs, env.pub, limits, log)
	env.commentUC = NewCommentUseCase(env.comments, env.posts, env.profiles, env.pub, log)
	env.feedUC = NewFeedUseCase(env.profiles, env.graph, env.posts, env.comments, limits, log)
	env.exploreUC = NewExploreUseCase(env.profiles, env.graph, env.posts, log)
	env.notifyUC = NewNotificationUseCase(env.inbox, env.profiles, env.live, log)
	return env
}

func emailOf(username string) string {
	return username + "@example.com"
}

func (e *testEnv) signup(t *testing.T, username string) *entity.UserProfile {
	t.Helper()
	p, err := e.profileUC.CreateProfile(context.Background(), emailOf(username), username, "")
	require.NoError(t, err)
	return p
}

func (e *testEnv) follow(t *testing.T, follower, target string) {
	t.Helper()
	require.NoError(t, e.profileUC.Follow(context.Background(), emailOf(follower), target))
}

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seedPost stores a text post at epoch plus minutes, bypassing the clock.
func (e *testEnv) seedPost(t *testing.T, username string, minutes int, hidden bool) *entity.Post {
	t.Helper()
	at := epoch.Add(time.Duration(minutes) * time.Minute)
	post := &entity.Post{
		ID:        newID("text", at),
		Type:      entity.PostTypeText,
		Username:  username,
		UserEmail: emailOf(username),
		PostDate:  at,
		Hidden:    hidden,
		Content:   "post",
	}
	require.NoError(t, e.posts.Create(context.Background(), post))
	return post
}

func feedIDs(page *entity.FeedPage) []string {
	ids := make([]string, len(page.Posts))
	for i, item := range page.Posts {
		ids[i] = item.ID
	}
	return ids
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// jpegWithCapture encodes a small JPEG carrying an APP1 Exif segment whose
// only date is DateTimeOriginal, formatted "2006:01:02 15:04:05".
func jpegWithCapture(t *testing.T, taken string) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var enc bytes.Buffer
	require.NoError(t, jpeg.Encode(&enc, img, nil))

	le := binary.LittleEndian
	tiff := new(bytes.Buffer)
	u16 := func(v uint16) { _ = binary.Write(tiff, le, v) }
	u32 := func(v uint32) { _ = binary.Write(tiff, le, v) }
	const (
		ifd0Offset = 8
		exifOffset = ifd0Offset + 2 + 12 + 4
		strOffset  = exifOffset + 2 + 12 + 4
	)
	value := append([]byte(taken), 0)

	tiff.WriteString("II")
	u16(42)
	u32(ifd0Offset)
	u16(1)
	u16(0x8769) // ExifIFDPointer
	u16(4)
	u32(1)
	u32(exifOffset)
	u32(0)
	u16(1)
	u16(0x9003) // DateTimeOriginal
	u16(2)
	u32(uint32(len(value)))
	u32(strOffset)
	u32(0)
	tiff.Write(value)

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))

	raw := enc.Bytes()
	out := append([]byte{}, raw[:2]...)
	out = append(out, segment...)
	out = append(out, payload...)
	return append(out, raw[2:]...)
}

var errBoom = errors.New("boom")

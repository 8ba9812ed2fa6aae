package captions

import (
	"context"

	ytlib "github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/mock"

	"github.com/muratoffalex/ytscribe/internal/service/youtube"
)

type mockSource struct {
	mock.Mock
	name string
}

func newMockSource(name string) *mockSource {
	return &mockSource{name: name}
}

func (m *mockSource) Name() string {
	return m.name
}

func (m *mockSource) Fetch(ctx context.Context, videoID, lang string) ([]CaptionLine, error) {
	args := m.Called(ctx, videoID, lang)
	lines, _ := args.Get(0).([]CaptionLine)
	return lines, args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, rawURL string) (*youtube.VideoMetadata, error) {
	args := m.Called(ctx, rawURL)
	meta, _ := args.Get(0).(*youtube.VideoMetadata)
	return meta, args.Error(1)
}

func (m *mockResolver) Fetch(ctx context.Context, videoID string) (*youtube.VideoMetadata, error) {
	args := m.Called(ctx, videoID)
	meta, _ := args.Get(0).(*youtube.VideoMetadata)
	return meta, args.Error(1)
}

type mockTranscriptClient struct {
	mock.Mock
}

func (m *mockTranscriptClient) GetVideoContext(ctx context.Context, id string) (*ytlib.Video, error) {
	args := m.Called(ctx, id)
	video, _ := args.Get(0).(*ytlib.Video)
	return video, args.Error(1)
}

func (m *mockTranscriptClient) GetTranscriptCtx(ctx context.Context, video *ytlib.Video, lang string) (ytlib.VideoTranscript, error) {
	args := m.Called(ctx, video, lang)
	transcript, _ := args.Get(0).(ytlib.VideoTranscript)
	return transcript, args.Error(1)
}

// fakeRunner writes fixture files into the scratch directory.
type fakeRunner struct {
	files  map[string]string
	stderr string
	err    error
	block  bool

	calls   int
	lastReq SubtitleRequest
}

func (f *fakeRunner) Run(ctx context.Context, req SubtitleRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return f.stderr, ctx.Err()
	}
	for name, content := range f.files {
		if err := writeFile(req.Dir, name, content); err != nil {
			return "", err
		}
	}
	return f.stderr, f.err
}

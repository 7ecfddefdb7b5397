// Package worker_test tests the NATS worker.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/voicefx/internal/audio"
	"github.com/book-expert/voicefx/internal/voice"
	"github.com/book-expert/voicefx/internal/worker"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject    = "text.processed"
	testSampleRate = 22050
)

var (
	errMockDownload = errors.New("mock download error")
	errMockUpload   = errors.New("mock upload error")
	errMockRender   = errors.New("mock render error")
)

// mockObjectStore is an in-memory core.ObjectStore.
type mockObjectStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	shouldFail  error
	downloadKey string
	uploadKey   string
}

func newMockStore(objects map[string][]byte) *mockObjectStore {
	return &mockObjectStore{objects: objects}
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail != nil {
		return nil, m.shouldFail
	}

	m.downloadKey = key

	return m.objects[key], nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shouldFail != nil {
		return m.shouldFail
	}

	m.uploadKey = key
	m.objects[key] = data

	return nil
}

func (m *mockObjectStore) get(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.objects[key]
}

func (m *mockObjectStore) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.shouldFail = err
}

func (m *mockObjectStore) keys() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.downloadKey, m.uploadKey
}

// mockRenderer returns a fixed clip and records its input and the highest
// number of overlapping calls.
type mockRenderer struct {
	mu          sync.Mutex
	err         error
	gotText     string
	gotOpts     voice.Options
	delay       atomic.Int64
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (m *mockRenderer) RenderClip(_ context.Context, text string, opts voice.Options) (audio.Clip, error) {
	current := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)

	for {
		peak := m.maxInFlight.Load()
		if current <= peak || m.maxInFlight.CompareAndSwap(peak, current) {
			break
		}
	}

	time.Sleep(time.Duration(m.delay.Load()))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return audio.Clip{}, m.err
	}

	m.gotText = text
	m.gotOpts = opts

	return audio.Clip{Samples: audio.Waveform{0, 0.5, -0.5, 0.25}, SampleRate: testSampleRate}, nil
}

func (m *mockRenderer) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

func (m *mockRenderer) received() (string, voice.Options) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.gotText, m.gotOpts
}

type fixture struct {
	texts    *mockObjectStore
	audio    *mockObjectStore
	renderer *mockRenderer
	conn     *nats.Conn
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	server := test.RunServer(&opts)
	t.Cleanup(server.Shutdown)

	natsConnection, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	return natsConnection
}

// startWorker runs a worker with profile until the test ends.
func startWorker(t *testing.T, profile voice.Options) *fixture {
	t.Helper()

	fix := &fixture{
		texts:    newMockStore(map[string][]byte{"page-1.txt": []byte("  Hello, world!\n")}),
		audio:    newMockStore(map[string][]byte{}),
		renderer: &mockRenderer{},
		conn:     createTestNatsClient(t),
	}

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testLogger.Close() })

	workerInstance, err := worker.NewNatsWorker(
		fix.conn, testSubject, fix.texts, fix.audio, fix.renderer, profile, testLogger,
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)

	go func() {
		errChan <- workerInstance.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-errChan, "worker.Run should not error on graceful shutdown")
	})

	require.Eventually(t, func() bool {
		return fix.conn.NumSubscriptions() > 0
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, fix.conn.Flush())

	return fix
}

func newEvent(textKey, speaker string) *events.TextProcessedEvent {
	return &events.TextProcessedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
		},
		TextKey:    textKey,
		PageNumber: 3,
		TotalPages: 10,
		Voice:      speaker,
	}
}

func request(t *testing.T, conn *nats.Conn, event *events.TextProcessedEvent, timeout time.Duration) (*nats.Msg, error) {
	t.Helper()

	eventData, err := json.Marshal(event)
	require.NoError(t, err)

	return conn.Request(testSubject, eventData, timeout)
}

func TestMessageHandler_Success(t *testing.T) {
	t.Parallel()

	pitch := -1.0
	fix := startWorker(t, voice.Options{Pitch: &pitch})
	event := newEvent("page-1.txt", "p230")

	replyMsg, err := request(t, fix.conn, event, 5*time.Second)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var replyEvent events.AudioChunkCreatedEvent

	require.NoError(t, json.Unmarshal(replyMsg.Data, &replyEvent))

	downloadKey, _ := fix.texts.keys()
	_, uploadKey := fix.audio.keys()
	gotText, gotOpts := fix.renderer.received()

	assert.Equal(t, "page-1.txt", downloadKey)
	assert.Equal(t, "Hello, world!", gotText)
	assert.Equal(t, "p230", gotOpts.SpeakerOr(""))
	require.NotNil(t, gotOpts.Pitch)
	assert.InDelta(t, -1.0, *gotOpts.Pitch, 1e-12)

	assert.Equal(t, uploadKey, replyEvent.AudioKey)
	assert.Regexp(t, `^[0-9a-f-]{36}\.wav$`, replyEvent.AudioKey)
	assert.Equal(t, event.Header.WorkflowID, replyEvent.Header.WorkflowID)
	assert.Equal(t, event.PageNumber, replyEvent.PageNumber)
	assert.Equal(t, event.TotalPages, replyEvent.TotalPages)

	clip, err := audio.DecodeWAV(fix.audio.get(replyEvent.AudioKey))
	require.NoError(t, err)
	assert.Equal(t, testSampleRate, clip.SampleRate)
	assert.Len(t, clip.Samples, 4)
}

func TestMessageHandler_HandlesJobsOneAtATime(t *testing.T) {
	t.Parallel()

	fix := startWorker(t, voice.Options{})
	fix.renderer.delay.Store(int64(50 * time.Millisecond))

	const jobs = 3

	var wg sync.WaitGroup

	errs := make(chan error, jobs)

	for range jobs {
		wg.Add(1)

		go func() {
			defer wg.Done()

			eventData, err := json.Marshal(newEvent("page-1.txt", ""))
			if err != nil {
				errs <- err

				return
			}

			_, err = fix.conn.Request(testSubject, eventData, 5*time.Second)
			errs <- err
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), fix.renderer.maxInFlight.Load(), "a subscription delivers one job at a time")
}

func TestMessageHandler_KeepsDefaultSpeakerWithoutVoice(t *testing.T) {
	t.Parallel()

	fix := startWorker(t, voice.Options{})

	_, err := request(t, fix.conn, newEvent("page-1.txt", ""), 5*time.Second)
	require.NoError(t, err)

	_, gotOpts := fix.renderer.received()
	assert.Nil(t, gotOpts.Speaker)
	assert.True(t, gotOpts.IsEmpty())
}

func TestMessageHandler_FailuresSendNoReply(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		textKey string
		breakIt func(fix *fixture)
	}{
		{name: "empty text key", textKey: ""},
		{name: "blank text", textKey: "blank.txt"},
		{
			name:    "download failure",
			textKey: "page-1.txt",
			breakIt: func(fix *fixture) { fix.texts.fail(errMockDownload) },
		},
		{
			name:    "render failure",
			textKey: "page-1.txt",
			breakIt: func(fix *fixture) { fix.renderer.fail(errMockRender) },
		},
		{
			name:    "upload failure",
			textKey: "page-1.txt",
			breakIt: func(fix *fixture) { fix.audio.fail(errMockUpload) },
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			fix := startWorker(t, voice.Options{})
			if testCase.breakIt != nil {
				testCase.breakIt(fix)
			}

			_, err := request(t, fix.conn, newEvent(testCase.textKey, ""), 300*time.Millisecond)
			require.ErrorIs(t, err, nats.ErrTimeout)

			_, uploadKey := fix.audio.keys()
			assert.Empty(t, uploadKey)
		})
	}
}

func TestNewNatsWorker_RejectsInvalidProfile(t *testing.T) {
	t.Parallel()

	speed := -1.0

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	defer testLogger.Close()

	_, err = worker.NewNatsWorker(nil, testSubject, newMockStore(nil), newMockStore(nil),
		&mockRenderer{}, voice.Options{Speed: &speed}, testLogger)
	require.Error(t, err)
}

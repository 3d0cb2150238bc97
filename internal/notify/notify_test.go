package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/leonardo-io/leonardo/internal/database/dbtest"
	"github.com/leonardo-io/leonardo/internal/models"
	"github.com/leonardo-io/leonardo/internal/signalbus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fakeSender struct {
	name string
	err  error
	mu   sync.Mutex
	sent []Message
}

func (f *fakeSender) Name() string {
	return f.name
}

func (f *fakeSender) Send(_ context.Context, target models.NotificationTarget, msg Message) error {
	if target.LineToken == "" {
		return ErrNoAddress
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type NotifyTestSuite struct {
	suite.Suite
	db        *gorm.DB
	signalBus signalbus.SignalBus
	outbox    *Outbox
	eventID   int64
}

func TestNotify(t *testing.T) {
	suite.Run(t, new(NotifyTestSuite))
}

func (s *NotifyTestSuite) SetupTest() {
	require := s.Require()
	db, _ := dbtest.New(s.T())
	s.db = db
	s.signalBus = signalbus.NewSignalBus()
	s.outbox = NewOutbox(zaptest.NewLogger(s.T()).Sugar(), db, s.signalBus)

	require.NoError(db.Create(&models.Device{
		DeviceID:           "UNIT-0001",
		ClaimDigest:        "digest",
		Status:             models.DeviceStatusActive,
		Plan:               models.DevicePlanStandard,
		NotificationTarget: models.NotificationTarget{LineToken: "line-token"},
	}).Error)
	event := models.DetectionEvent{
		DeviceID:   "UNIT-0001",
		DetectedAt: time.Now().UTC(),
		Category:   "bear",
		Confidence: 0.92,
	}
	require.NoError(db.Create(&event).Error)
	s.eventID = event.ID
}

func (s *NotifyTestSuite) worker(senders ...Sender) *Worker {
	return NewWorker(zaptest.NewLogger(s.T()).Sugar(), s.db, s.signalBus, time.Hour, senders...)
}

func (s *NotifyTestSuite) emitDetection() {
	s.Require().NoError(s.outbox.Emit(context.Background(), Intent{
		DeviceID: "UNIT-0001",
		EventID:  s.eventID,
		Kind:     models.NotificationKindDetection,
		Payload:  DetectionPayload{DeviceID: "UNIT-0001", Category: "bear", Confidence: 0.92},
	}))
}

func (s *NotifyTestSuite) intents() []models.NotificationIntent {
	var intents []models.NotificationIntent
	s.Require().NoError(s.db.Find(&intents).Error)
	return intents
}

func (s *NotifyTestSuite) TestEmitOncePerEventAndKind() {
	require := s.Require()
	sub := s.signalBus.Subscribe(Signal)
	defer sub.Close()

	s.emitDetection()
	require.True(sub.IsSignaled())
	s.emitDetection()
	require.False(sub.IsSignaled())

	require.NoError(s.outbox.Emit(context.Background(), Intent{
		DeviceID: "UNIT-0001",
		EventID:  s.eventID,
		Kind:     models.NotificationKindLocationMismatch,
		Payload:  MismatchPayload{DeviceID: "UNIT-0001", Region: "大阪府"},
	}))

	intents := s.intents()
	require.Len(intents, 2)
	for _, intent := range intents {
		require.Equal(models.NotificationStatePending, intent.State)
	}
}

func (s *NotifyTestSuite) TestDeliverAtMostOnce() {
	require := s.Require()
	s.emitDetection()

	line := &fakeSender{name: "line"}
	w := s.worker(line)

	n, err := w.ProcessPending(context.Background())
	require.NoError(err)
	require.Equal(1, n)
	require.Equal(1, line.count())
	require.Equal("【Leonardo Jr.】熊を検知しました", line.sent[0].Subject)

	n, err = w.ProcessPending(context.Background())
	require.NoError(err)
	require.Zero(n)
	require.Equal(1, line.count())

	intents := s.intents()
	require.Len(intents, 1)
	require.Equal(models.NotificationStateSent, intents[0].State)
	require.Nil(intents[0].Error)
}

func (s *NotifyTestSuite) TestConcurrentWorkers() {
	require := s.Require()
	s.emitDetection()
	require.NoError(s.outbox.Emit(context.Background(), Intent{
		DeviceID: "UNIT-0001",
		EventID:  s.eventID,
		Kind:     models.NotificationKindLocationMismatch,
		Payload:  MismatchPayload{DeviceID: "UNIT-0001"},
	}))

	line := &fakeSender{name: "line"}
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.worker(line).ProcessPending(context.Background())
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(err)
	}
	require.Equal(2, line.count())
}

func (s *NotifyTestSuite) TestFailedDeliveryIsNotRetried() {
	require := s.Require()
	s.emitDetection()

	line := &fakeSender{name: "line", err: errors.New("boom")}
	w := s.worker(line)
	_, err := w.ProcessPending(context.Background())
	require.NoError(err)

	intents := s.intents()
	require.Equal(models.NotificationStateFailed, intents[0].State)
	require.NotNil(intents[0].Error)
	require.Contains(*intents[0].Error, "line: boom")

	line.err = nil
	n, err := w.ProcessPending(context.Background())
	require.NoError(err)
	require.Zero(n)
	require.Zero(line.count())
}

func (s *NotifyTestSuite) TestNoDeliverableAddress() {
	require := s.Require()
	s.emitDetection()

	// SMTP is not configured so the email sender has nowhere to send
	_, err := s.worker(&EmailSender{}).ProcessPending(context.Background())
	require.NoError(err)
	intents := s.intents()
	require.Equal(models.NotificationStateFailed, intents[0].State)
}

func (s *NotifyTestSuite) TestStartWakesOnSignal() {
	require := s.Require()
	line := &fakeSender{name: "line"}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	s.worker(line).Start(ctx, &wg)
	defer func() {
		cancel()
		wg.Wait()
	}()

	s.emitDetection()
	require.Eventually(func() bool {
		return line.count() == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestRender(t *testing.T) {
	require := require.New(t)

	msg, err := Render(models.NotificationKindDetection, `{"device_id":"UNIT-0001","detection_type":"vehicle","confidence":0.875}`)
	require.NoError(err)
	require.Equal("【Leonardo Jr.】車両を検知しました", msg.Subject)
	require.Contains(msg.Body, "デバイス: UNIT-0001")
	require.Contains(msg.Body, "検知対象: 車両")
	require.Contains(msg.Body, "信頼度: 87.5%")

	msg, err = Render(models.NotificationKindLocationMismatch, `{"device_id":"UNIT-0001","region":"大阪府","distance_km":396.8}`)
	require.NoError(err)
	require.Equal("【Leonardo Jr.】位置逸脱を検知しました", msg.Subject)
	require.Contains(msg.Body, "発報地域: 大阪府")
	require.Contains(msg.Body, "登録座標との距離: 397km")

	msg, err = Render(models.NotificationKindLocationMismatch, `{"device_id":"UNIT-0001"}`)
	require.NoError(err)
	require.Contains(msg.Body, "発報地域: 不明")
	require.Contains(msg.Body, "登録座標との距離: 不明")

	require.Equal("unknown", DetectionLabel("unknown"))
	_, err = Render("sms", "{}")
	require.Error(err)
}

func TestLineSender(t *testing.T) {
	require := require.New(t)

	var gotAuth, gotMessage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMessage = r.PostFormValue("message")
		if gotAuth != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":401,"message":"Invalid access token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":200,"message":"ok"}`))
	}))
	defer server.Close()

	sender := NewLineSender(server.URL)
	msg := Message{Subject: "s", Body: "熊を検知しました"}

	require.ErrorIs(sender.Send(context.Background(), models.NotificationTarget{}, msg), ErrNoAddress)
	require.NoError(sender.Send(context.Background(), models.NotificationTarget{LineToken: "good"}, msg))
	require.Equal("Bearer good", gotAuth)
	require.Equal("熊を検知しました", gotMessage)

	err := sender.Send(context.Background(), models.NotificationTarget{LineToken: "bad"}, msg)
	require.Error(err)
	require.Contains(err.Error(), "401")
}

package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pesto-students/backend-repo-titans/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type MockDeliverer struct{ mock.Mock }

func (m *MockDeliverer) Deliver(ctx context.Context, job EmailJob) error {
	return m.Called(ctx, job).Error(0)
}

func newTestService(rdb *redis.Client, d Deliverer) *Service {
	svc := New(rdb, d, "WorkoutWings")
	svc.retryDelay = 0
	return svc
}

func TestSendTemplate(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db, nil)

	err := svc.SendTemplate(context.Background(), "member@example.com", TemplateBookingConfirmed, map[string]any{
		"name": "Asha", "gym": "Iron Temple", "date": "10/03/2025", "from": "06:30", "to": "07:15", "price": "250.00", "booking_id": 7,
	})

	assert.NoError(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestSendTemplate_UnknownTemplate(t *testing.T) {
	db, rmock := redismock.NewClientMock()

	svc := newTestService(db, nil)

	err := svc.SendTemplate(context.Background(), "member@example.com", "nope", nil)

	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestSendTemplate_QueueError(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db, nil)

	err := svc.SendTemplate(context.Background(), "member@example.com", TemplateWelcome, map[string]any{"name": "Asha"})

	assert.Error(t, err)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNext_Delivers(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	job := EmailJob{To: "member@example.com", Template: TemplateWelcome, Subject: "Hi", Body: "<p>Hi</p>", Created: time.Now()}
	data, _ := json.Marshal(job)
	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(data)})

	d := new(MockDeliverer)
	d.On("Deliver", mock.Anything, mock.MatchedBy(func(j EmailJob) bool { return j.To == job.To && j.Tries == 1 })).Return(nil)

	require.NoError(t, newTestService(db, d).processNext(context.Background()))

	d.AssertExpectations(t)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNext_MovesToFailedAfterMaxTries(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	job := EmailJob{To: "member@example.com", Template: TemplateWelcome, Tries: maxTries - 1}
	data, _ := json.Marshal(job)
	rmock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, string(data)})
	rmock.Regexp().ExpectLPush(failedQueueKey, `.*`).SetVal(1)

	d := new(MockDeliverer)
	d.On("Deliver", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	require.NoError(t, newTestService(db, d).processNext(context.Background()))

	d.AssertExpectations(t)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNext_EmptyQueue(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.ExpectBRPop(2*time.Second, queueKey).RedisNil()

	d := new(MockDeliverer)

	assert.NoError(t, newTestService(db, d).processNext(context.Background()))
	d.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestProcessNext_QueueDown(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.ExpectBRPop(2*time.Second, queueKey).SetErr(errors.New("connection refused"))

	err := newTestService(db, new(MockDeliverer)).processNext(context.Background())

	assert.EqualError(t, err, "connection refused")
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestStart_BacksOffWhileQueueDown(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.ExpectBRPop(2*time.Second, queueKey).SetErr(errors.New("connection refused"))

	svc := newTestService(db, new(MockDeliverer))
	svc.pollBackoff = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop during backoff")
	}
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	rmock.ExpectLLen(queueKey).SetVal(5)

	assert.Equal(t, int64(5), newTestService(db, nil).QueueLength(context.Background()))
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRender(t *testing.T) {
	subject, html, err := Render(TemplateGymNeedsResubmit, map[string]any{
		"name":    "Ravi",
		"gym":     "Iron Temple",
		"reasons": []string{"Upload clearer photos", "Add GST number"},
	})

	require.NoError(t, err)
	assert.Equal(t, "Iron Temple needs changes", subject)
	assert.Contains(t, html, "<li>Upload clearer photos</li>")
	assert.Contains(t, html, "<strong>Iron Temple</strong>")
}

package email

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pesto-students/backend-repo-titans/internal/logger"
	"github.com/pesto-students/backend-repo-titans/internal/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

// Sender is what the domain services depend on. Sending is fire-and-forget:
// the message is queued and delivered by the worker started with Start.
type Sender interface {
	SendTemplate(ctx context.Context, to, template string, params map[string]any) error
}

type EmailJob struct {
	To       string    `json:"to"`
	Template string    `json:"template"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Tries    int       `json:"tries"`
	Created  time.Time `json:"created"`
}

type Service struct {
	redis       *redis.Client
	deliverer   Deliverer
	platform    string
	retryDelay  time.Duration
	pollBackoff time.Duration
}

func New(rdb *redis.Client, deliverer Deliverer, platform string) *Service {
	return &Service{
		redis:       rdb,
		deliverer:   deliverer,
		platform:    platform,
		retryDelay:  5 * time.Second,
		pollBackoff: 5 * time.Second,
	}
}

// SendTemplate renders the named template and queues the result.
func (s *Service) SendTemplate(ctx context.Context, to, template string, params map[string]any) error {
	if params == nil {
		params = map[string]any{}
	}
	if _, ok := params["platform"]; !ok {
		params["platform"] = s.platform
	}

	subject, body, err := Render(template, params)
	if err != nil {
		logger.Error("failed to render email", "template", template, "error", err)
		return err
	}

	return s.enqueue(ctx, EmailJob{
		To:       to,
		Template: template,
		Subject:  subject,
		Body:     body,
		Created:  time.Now(),
	})
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("failed to marshal email job", "error", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("failed to queue email", "to", job.To, "template", job.Template, "error", err)
		return err
	}

	logger.Info("email queued", "to", job.To, "template", job.Template)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopped")
			return
		default:
		}

		if err := s.processNext(ctx); err != nil {
			if ctx.Err() != nil {
				logger.Info("email worker stopped")
				return
			}
			logger.Error("email queue unavailable", "error", err, "retry_in", s.pollBackoff.String())
			select {
			case <-ctx.Done():
				logger.Info("email worker stopped")
				return
			case <-time.After(s.pollBackoff):
			}
		}
	}
}

// processNext handles at most one queued job. It only returns an error when
// the queue could not be read; delivery failures are retried or parked.
func (s *Service) processNext(ctx context.Context) error {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad email payload", "error", err)
		return nil
	}

	job.Tries++
	if err := s.deliverer.Deliver(ctx, job); err != nil {
		logger.Error("failed to deliver email", "to", job.To, "attempt", job.Tries, "error", err)
		metrics.RecordEmail(job.Template, "failed")

		if job.Tries < maxTries {
			time.Sleep(s.retryDelay)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			s.saveFailed(job, err)
		}
		return nil
	}

	metrics.RecordEmail(job.Template, "sent")
	logger.Info("email delivered", "to", job.To, "template", job.Template)
	return nil
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Error("email moved to failed queue", "to", job.To, "template", job.Template)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

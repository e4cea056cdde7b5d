package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/pkg/logger"
)

const TaskTypeMail = "mail:send"

// MailTask is an outbound email waiting for delivery.
type MailTask struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

// MailQueue decouples email delivery from the request path.
type MailQueue interface {
	// Enqueue schedules a mail for delivery
	Enqueue(task *MailTask) error
	// IsAsync returns true if delivery happens out of process
	IsAsync() bool
	// Close gracefully shuts down the queue
	Close() error
}

var (
	globalMailQueue MailQueue
	mailQueueOnce   sync.Once
)

// InitMailQueue initializes the global mail queue based on config: asynq over
// Redis when enabled, an in-process goroutine fallback otherwise.
func InitMailQueue(cfg *config.Config, mailer *Mailer) MailQueue {
	mailQueueOnce.Do(func() {
		if cfg.Redis.Enabled {
			queue, err := NewAsyncMailQueue(&cfg.Redis)
			if err != nil {
				logger.Infof("[MailQueue] Redis unavailable, falling back to sync mode: %v", err)
				globalMailQueue = NewSyncMailQueue(mailer)
			} else {
				logger.Infof("[MailQueue] Async queue initialized with Redis at %s", cfg.Redis.Addr)
				globalMailQueue = queue
			}
		} else {
			logger.Infof("[MailQueue] Sync queue initialized (Redis disabled)")
			globalMailQueue = NewSyncMailQueue(mailer)
		}
	})
	return globalMailQueue
}

// GetMailQueue returns the global mail queue instance
func GetMailQueue() MailQueue {
	return globalMailQueue
}

// AsyncMailQueue implements MailQueue using asynq (Redis-based)
type AsyncMailQueue struct {
	client *asynq.Client
}

// NewAsyncMailQueue creates a new Redis-based async queue
func NewAsyncMailQueue(cfg *config.RedisConfig) (*AsyncMailQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()

	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncMailQueue{client: client}, nil
}

func (q *AsyncMailQueue) Enqueue(task *MailTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(TaskTypeMail, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Infof("[MailQueue] Mail enqueued: id=%s, queue=%s", info.ID, info.Queue)
	return nil
}

func (q *AsyncMailQueue) IsAsync() bool {
	return true
}

func (q *AsyncMailQueue) Close() error {
	return q.client.Close()
}

// StartMailWorker runs an asynq worker consuming mail tasks. Only started
// when Redis is enabled.
func StartMailWorker(cfg *config.RedisConfig, mailer *Mailer) *asynq.Server {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB},
		asynq.Config{Concurrency: 2},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeMail, func(ctx context.Context, t *asynq.Task) error {
		var task MailTask
		if err := json.Unmarshal(t.Payload(), &task); err != nil {
			return err
		}
		return mailer.Send(&task)
	})

	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf("[MailQueue] worker stopped: %v", err)
		}
	}()
	return srv
}

// SyncMailQueue delivers mail from the current process (no Redis)
type SyncMailQueue struct {
	mailer *Mailer
}

func NewSyncMailQueue(mailer *Mailer) *SyncMailQueue {
	return &SyncMailQueue{mailer: mailer}
}

// Enqueue delivers the mail in a goroutine to not block the request
func (q *SyncMailQueue) Enqueue(task *MailTask) error {
	go func() {
		if err := q.mailer.Send(task); err != nil {
			logger.Infof("[MailQueue] delivery failed: %v", err)
		}
	}()
	return nil
}

func (q *SyncMailQueue) IsAsync() bool {
	return false
}

func (q *SyncMailQueue) Close() error {
	return nil
}

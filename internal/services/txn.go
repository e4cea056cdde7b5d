package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/pkg/logger"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic save observes a stale
// version counter, i.e. a concurrent writer committed first.
var ErrVersionConflict = errors.New("optimistic version conflict")

// Versioned is implemented by aggregates carrying an optimistic lock counter.
type Versioned interface {
	LockVersion() int64
	BumpVersion()
}

// RetryPolicy describes how transient storage failures are retried: attempts
// beyond the first, exponential backoff curve, and the classifier deciding
// which errors are worth retrying at all.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	JitterMax    time.Duration
	Retryable    func(error) bool
}

// NewRetryPolicy builds a policy from config, falling back to the compiled
// defaults for unset knobs.
func NewRetryPolicy(cfg config.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay,
		MaxDelay:     cfg.MaxDelay,
		JitterMax:    100 * time.Millisecond,
		Retryable:    IsTransient,
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 100 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 2000 * time.Millisecond
	}
	return p
}

// Backoff returns the delay before retry number attempt (0-based): the
// initial delay doubled per attempt plus random jitter, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 0; i < attempt && d < p.MaxDelay; i++ {
		d *= 2
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.JitterMax > 0 {
		d += time.Duration(rand.Int63n(int64(p.JitterMax)))
	}
	return d
}

// Do runs fn, retrying per the policy. Non-retryable errors propagate
// immediately; exhausting the attempts returns the last error unchanged.
func (p RetryPolicy) Do(fn func() error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if attempt >= p.MaxRetries || !retryable(err) {
			return err
		}
		delay := p.Backoff(attempt)
		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("transient storage error, retrying")
		time.Sleep(delay)
	}
}

// IsTransient is the default retryable-error classifier: optimistic version
// conflicts, duplicate-key races, write conflicts and transient transaction
// errors. Everything else is a semantic rejection and must not be retried.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrVersionConflict) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"duplicate key",
		"write conflict",
		"transienttransactionerror",
		"deadlock",
		"database is locked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// DeleteStep is one ordered deletion inside a cascade: the rows of Model
// matched by Where/Args. Keeping the dependency order as data makes it
// testable without a handler in front.
type DeleteStep struct {
	Model interface{}
	Where string
	Args  []interface{}
}

// Mutator executes units of work against multiple aggregates with
// all-or-nothing visibility, and absorbs transient storage races.
type Mutator struct {
	db     *gorm.DB
	policy RetryPolicy
}

func NewMutator(db *gorm.DB, policy RetryPolicy) *Mutator {
	return &Mutator{db: db, policy: policy}
}

// Policy exposes the retry policy for callers composing their own cycles.
func (m *Mutator) Policy() RetryPolicy {
	return m.policy
}

// Atomic runs fn inside one transaction, retried per the policy. Any error
// from fn rolls the whole unit back.
func (m *Mutator) Atomic(fn func(tx *gorm.DB) error) error {
	return m.policy.Do(func() error {
		return m.db.Transaction(fn)
	})
}

// Cascade executes the deletion steps in order inside one transaction.
// A failing step aborts the transaction and leaves every row in place.
func (m *Mutator) Cascade(steps []DeleteStep) error {
	return m.Atomic(func(tx *gorm.DB) error {
		for _, step := range steps {
			if err := tx.Where(step.Where, step.Args...).Delete(step.Model).Error; err != nil {
				return fmt.Errorf("cascade delete %T: %w", step.Model, err)
			}
		}
		return nil
	})
}

// OptimisticSave applies updates to record guarded by its version counter.
// Zero rows affected means a concurrent writer won the race; the caller is
// expected to re-fetch and retry via the policy.
func (m *Mutator) OptimisticSave(tx *gorm.DB, record Versioned, updates map[string]interface{}) error {
	current := record.LockVersion()

	patch := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		patch[k] = v
	}
	patch["version"] = current + 1

	res := tx.Model(record).Where("version = ?", current).Updates(patch)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	record.BumpVersion()
	return nil
}

// Retry runs the whole re-fetch/mutate/persist cycle in fn under the policy.
// fn must be idempotent against a freshly fetched aggregate; that is a
// contract on the caller, not checked here.
func (m *Mutator) Retry(fn func() error) error {
	return m.policy.Do(fn)
}

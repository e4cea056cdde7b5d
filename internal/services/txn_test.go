package services

import (
	"errors"
	"testing"
	"time"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/gorm"
)

func TestNewRetryPolicy_Defaults(t *testing.T) {
	p := NewRetryPolicy(config.RetryConfig{})

	if p.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, expected 3", p.MaxRetries)
	}
	if p.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, expected 100ms", p.InitialDelay)
	}
	if p.MaxDelay != 2000*time.Millisecond {
		t.Errorf("MaxDelay = %v, expected 2s", p.MaxDelay)
	}
	if p.Retryable == nil {
		t.Error("Retryable classifier should default to IsTransient")
	}
}

func TestRetryPolicy_BackoffDoublesAndCaps(t *testing.T) {
	p := RetryPolicy{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{10, 400 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := p.Backoff(tc.attempt); got != tc.want {
			t.Errorf("Backoff(%d) = %v, expected %v", tc.attempt, got, tc.want)
		}
	}
}

func TestRetryPolicy_BackoffJitterBounds(t *testing.T) {
	p := RetryPolicy{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     80 * time.Millisecond,
		JitterMax:    5 * time.Millisecond,
	}

	for i := 0; i < 50; i++ {
		d := p.Backoff(1)
		if d < 20*time.Millisecond || d >= 25*time.Millisecond {
			t.Fatalf("Backoff(1) = %v, expected in [20ms, 25ms)", d)
		}
	}
}

func TestRetryPolicy_DoStopsOnNonRetryable(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	semantic := errors.New("membership not found")
	err := p.Do(func() error {
		calls++
		return semantic
	})

	if !errors.Is(err, semantic) {
		t.Errorf("err = %v, expected the semantic error unchanged", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, a non-retryable error must not be retried", calls)
	}
}

func TestRetryPolicy_DoRecoversFromTransient(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return ErrVersionConflict
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() = %v, expected success after retries", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, expected 3", calls)
	}
}

func TestRetryPolicy_DoExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	calls := 0
	err := p.Do(func() error {
		calls++
		return ErrVersionConflict
	})

	if !errors.Is(err, ErrVersionConflict) {
		t.Errorf("err = %v, expected the last ErrVersionConflict", err)
	}
	// initial attempt plus MaxRetries retries
	if calls != 3 {
		t.Errorf("fn called %d times, expected 3", calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrVersionConflict, true},
		{gorm.ErrDuplicatedKey, true},
		{errors.New("UNIQUE constraint failed: duplicate key value"), true},
		{errors.New("WriteConflict error: this operation conflicted"), true},
		{errors.New("TransientTransactionError, label set"), true},
		{errors.New("Deadlock found when trying to get lock"), true},
		{errors.New("database is locked"), true},
		{errors.New("membership not found"), false},
		{errors.New("invalid role"), false},
	}

	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Errorf("IsTransient(%v) = %v, expected %v", tc.err, got, tc.want)
		}
	}
}

func TestOptimisticSave_BumpsVersion(t *testing.T) {
	db := setupTestDB(t)
	m := fastMutator(db)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	if project.Version != 1 {
		t.Fatalf("fresh project version = %d, expected 1", project.Version)
	}

	err := m.OptimisticSave(db, project, map[string]interface{}{"name": "alpha-renamed"})
	if err != nil {
		t.Fatalf("OptimisticSave() error = %v", err)
	}
	if project.Version != 2 {
		t.Errorf("in-memory version = %d, expected 2", project.Version)
	}

	var stored models.Project
	db.First(&stored, project.ID)
	if stored.Version != 2 {
		t.Errorf("stored version = %d, expected 2", stored.Version)
	}
	if stored.Name != "alpha-renamed" {
		t.Errorf("stored name = %q", stored.Name)
	}
}

func TestOptimisticSave_StaleVersionConflict(t *testing.T) {
	db := setupTestDB(t)
	m := fastMutator(db)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	var first, second models.Project
	db.First(&first, project.ID)
	db.First(&second, project.ID)

	if err := m.OptimisticSave(db, &first, map[string]interface{}{"name": "winner"}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	err := m.OptimisticSave(db, &second, map[string]interface{}{"name": "loser"})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("stale save error = %v, expected ErrVersionConflict", err)
	}

	var stored models.Project
	db.First(&stored, project.ID)
	if stored.Name != "winner" {
		t.Errorf("stored name = %q, the committed write must not be overwritten", stored.Name)
	}
	if stored.Version != 2 {
		t.Errorf("stored version = %d, expected 2", stored.Version)
	}
}

func TestCascade_DeletesInOrder(t *testing.T) {
	db := setupTestDB(t)
	m := fastMutator(db)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	task := models.Task{ProjectID: project.ID, Title: "task", CreatedByID: owner.ID}
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	subtask := models.Subtask{TaskID: task.ID, Title: "sub", CreatedByID: owner.ID}
	if err := db.Create(&subtask).Error; err != nil {
		t.Fatal(err)
	}

	steps := []DeleteStep{
		{Model: &models.Subtask{}, Where: "task_id = ?", Args: []interface{}{task.ID}},
		{Model: &models.Task{}, Where: "id = ?", Args: []interface{}{task.ID}},
	}
	if err := m.Cascade(steps); err != nil {
		t.Fatalf("Cascade() error = %v", err)
	}

	if n := countRows(t, db, &models.Subtask{}, "task_id = ?", task.ID); n != 0 {
		t.Errorf("%d subtasks remain", n)
	}
	if n := countRows(t, db, &models.Task{}, "id = ?", task.ID); n != 0 {
		t.Errorf("%d tasks remain", n)
	}
}

func TestCascade_AllOrNothing(t *testing.T) {
	db := setupTestDB(t)
	m := fastMutator(db)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	task := models.Task{ProjectID: project.ID, Title: "task", CreatedByID: owner.ID}
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	subtask := models.Subtask{TaskID: task.ID, Title: "sub", CreatedByID: owner.ID}
	if err := db.Create(&subtask).Error; err != nil {
		t.Fatal(err)
	}

	// The second step references a column that does not exist, so the
	// transaction must roll back the subtask deletion from the first step.
	steps := []DeleteStep{
		{Model: &models.Subtask{}, Where: "task_id = ?", Args: []interface{}{task.ID}},
		{Model: &models.Task{}, Where: "no_such_column = ?", Args: []interface{}{task.ID}},
	}
	if err := m.Cascade(steps); err == nil {
		t.Fatal("Cascade() should fail on the broken step")
	}

	if n := countRows(t, db, &models.Subtask{}, "task_id = ?", task.ID); n != 1 {
		t.Errorf("subtask count = %d, a failed cascade must leave every row in place", n)
	}
	if n := countRows(t, db, &models.Task{}, "id = ?", task.ID); n != 1 {
		t.Errorf("task count = %d, expected 1", n)
	}
}

func TestMutator_AtomicRollsBack(t *testing.T) {
	db := setupTestDB(t)
	m := fastMutator(db)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)

	boom := errors.New("boom")
	err := m.Atomic(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Project{Name: "ghost", OwnerID: owner.ID}).Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic() = %v, expected the inner error", err)
	}

	if n := countRows(t, db, &models.Project{}, "name = ?", "ghost"); n != 0 {
		t.Errorf("project persisted despite rollback")
	}
}

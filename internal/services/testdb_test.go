package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/projecthub/backend/internal/config"
	"github.com/projecthub/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB opens an isolated in-memory database per test and migrates the
// full schema. TranslateError is on, as in production, so unique-index
// violations surface as gorm.ErrDuplicatedKey.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Task{},
		&models.Subtask{},
		&models.Note{},
		&models.Attachment{},
		&models.RefreshToken{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// fastMutator returns a mutator with millisecond backoff so conflict tests
// do not sleep for real.
func fastMutator(db *gorm.DB) *Mutator {
	return NewMutator(db, RetryPolicy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Retryable:    IsTransient,
	})
}

func testFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(&config.UploadsConfig{Dir: t.TempDir(), MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("failed to create file store: %v", err)
	}
	return fs
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.SystemRole) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

// createTestProject goes through the service so the owner's admin membership
// exists, as it would in production.
func createTestProject(t *testing.T, db *gorm.DB, owner *models.User, name string) *models.Project {
	t.Helper()
	svc := NewProjectService(db, fastMutator(db), testFileStore(t))
	project, err := svc.Create(&CreateProjectRequest{Name: name}, owner)
	if err != nil {
		t.Fatalf("failed to create project %s: %v", name, err)
	}
	return project
}

func addTestMember(t *testing.T, db *gorm.DB, project *models.Project, user *models.User, role models.ProjectRole) *models.ProjectMembership {
	t.Helper()
	membership := &models.ProjectMembership{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  time.Now(),
		AddedByID: project.OwnerID,
		Version:   1,
	}
	if err := db.Create(membership).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return membership
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}

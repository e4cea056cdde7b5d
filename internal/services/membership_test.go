package services

import (
	"testing"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
	"gorm.io/gorm"
)

func TestMembershipService_Add(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	membership, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "member"}, owner)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if membership.UserID != carol.ID {
		t.Errorf("UserID = %d, expected %d", membership.UserID, carol.ID)
	}
	if membership.Role != models.ProjectRoleMember {
		t.Errorf("Role = %q, expected member", membership.Role)
	}
	if membership.AddedByID != owner.ID {
		t.Errorf("AddedByID = %d, expected %d", membership.AddedByID, owner.ID)
	}
	if membership.JoinedAt.IsZero() {
		t.Error("JoinedAt should be set")
	}
}

func TestMembershipService_AddDuplicateIsConflict(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	if _, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "member"}, owner); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}

	_, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "project_admin"}, owner)
	if response.KindOf(err) != response.KindConflict {
		t.Errorf("duplicate Add() = %v, expected Conflict", err)
	}

	if n := countRows(t, db, &models.ProjectMembership{}, "project_id = ? AND user_id = ?", project.ID, carol.ID); n != 1 {
		t.Errorf("membership count = %d, expected exactly 1", n)
	}
}

func TestMembershipService_AddInvalidRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	_, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "superuser"}, owner)
	if response.KindOf(err) != response.KindInvalidArgument {
		t.Errorf("err = %v, expected InvalidArgument", err)
	}
}

func TestMembershipService_AddUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	_, err := svc.Add(project.ID, &AddMemberRequest{Email: "nobody@example.com", Role: "member"}, owner)
	if response.KindOf(err) != response.KindNotFound {
		t.Errorf("err = %v, expected NotFound", err)
	}
}

func TestMembershipService_AddUnknownProject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)

	_, err := svc.Add(9999, &AddMemberRequest{Email: owner.Email, Role: "member"}, owner)
	if response.KindOf(err) != response.KindNotFound {
		t.Errorf("err = %v, expected NotFound", err)
	}
}

func TestMembershipService_UpdateRolePreservesJoinedAt(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	updated, err := svc.UpdateRole(project.ID, membership.ID, &UpdateMemberRoleRequest{Role: "project_admin"})
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if updated.Role != models.ProjectRoleProjectAdmin {
		t.Errorf("Role = %q, expected project_admin", updated.Role)
	}
	if updated.Version != membership.Version+1 {
		t.Errorf("Version = %d, expected %d", updated.Version, membership.Version+1)
	}
	if updated.JoinedAt.Unix() != membership.JoinedAt.Unix() {
		t.Errorf("JoinedAt changed from %v to %v", membership.JoinedAt, updated.JoinedAt)
	}
	if updated.AddedByID != membership.AddedByID {
		t.Errorf("AddedByID changed from %d to %d", membership.AddedByID, updated.AddedByID)
	}
}

func TestMembershipService_UpdateRoleSequentialWrites(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	// Two writers in sequence: each re-fetches, so both succeed and the
	// version counter records both.
	if _, err := svc.UpdateRole(project.ID, membership.ID, &UpdateMemberRoleRequest{Role: "project_admin"}); err != nil {
		t.Fatalf("first UpdateRole() error = %v", err)
	}
	updated, err := svc.UpdateRole(project.ID, membership.ID, &UpdateMemberRoleRequest{Role: "member"})
	if err != nil {
		t.Fatalf("second UpdateRole() error = %v", err)
	}
	if updated.Version != membership.Version+2 {
		t.Errorf("Version = %d, expected %d", updated.Version, membership.Version+2)
	}
	if updated.Role != models.ProjectRoleMember {
		t.Errorf("Role = %q, expected the last write to win", updated.Role)
	}
}

func TestMembershipService_UpdateRoleConflictingWriters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	// A competing writer commits right after the cycle's fetch, so the first
	// guarded save sees a stale version and must go around again.
	fired := false
	err := db.Callback().Query().After("gorm:query").Register("competing_role_writer", func(tx *gorm.DB) {
		if fired || tx.Statement.Table != "project_memberships" {
			return
		}
		fired = true
		db.Exec("UPDATE project_memberships SET role = ?, version = version + 1 WHERE id = ?",
			string(models.ProjectRoleAdmin), membership.ID)
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	updated, err := svc.UpdateRole(project.ID, membership.ID, &UpdateMemberRoleRequest{Role: "project_admin"})
	if err != nil {
		t.Fatalf("UpdateRole() error = %v", err)
	}
	if !fired {
		t.Fatal("competing write never ran, nothing was contended")
	}
	if updated.Role != models.ProjectRoleProjectAdmin {
		t.Errorf("Role = %q, expected the caller's role reapplied over the winner's row", updated.Role)
	}
	if updated.Version != membership.Version+2 {
		t.Errorf("Version = %d, expected %d (both writes counted)", updated.Version, membership.Version+2)
	}
}

func TestMembershipService_UpdateRoleUnknownMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	_, err := svc.UpdateRole(project.ID, 9999, &UpdateMemberRoleRequest{Role: "member"})
	if response.KindOf(err) != response.KindNotFound {
		t.Errorf("err = %v, expected NotFound", err)
	}
}

func TestMembershipService_RemoveKeepsAuthoredRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	task := models.Task{ProjectID: project.ID, Title: "carols task", AssigneeID: &carol.ID, CreatedByID: carol.ID}
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}
	note := models.Note{ProjectID: project.ID, Title: "carols note", CreatedByID: carol.ID}
	if err := db.Create(&note).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Remove(project.ID, membership.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := svc.Find(project.ID, carol.ID); response.KindOf(err) != response.KindNotFound {
		t.Errorf("membership still resolvable after removal: %v", err)
	}

	var keptTask models.Task
	if err := db.First(&keptTask, task.ID).Error; err != nil {
		t.Fatalf("task removed with the membership: %v", err)
	}
	if keptTask.AssigneeID == nil || *keptTask.AssigneeID != carol.ID {
		t.Error("task assignee reference lost")
	}
	var keptNote models.Note
	if err := db.First(&keptNote, note.ID).Error; err != nil {
		t.Fatalf("note removed with the membership: %v", err)
	}
	if keptNote.CreatedByID != carol.ID {
		t.Error("note author reference lost")
	}
}

func TestMembershipService_RemoveThenReAdd(t *testing.T) {
	db := setupTestDB(t)
	svc := NewMembershipService(db, fastMutator(db), nil)
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	first, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "member"}, owner)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := svc.Remove(project.ID, first.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// The row must be gone outright, not left as a tombstone that would still
	// occupy the (project, user) unique index.
	var ghosts int64
	if err := db.Unscoped().Model(&models.ProjectMembership{}).
		Where("project_id = ? AND user_id = ?", project.ID, carol.ID).
		Count(&ghosts).Error; err != nil {
		t.Fatal(err)
	}
	if ghosts != 0 {
		t.Fatalf("removed membership left %d row(s) behind", ghosts)
	}

	readded, err := svc.Add(project.ID, &AddMemberRequest{Email: carol.Email, Role: "project_admin"}, owner)
	if err != nil {
		t.Fatalf("re-Add() after Remove() error = %v", err)
	}
	if readded.Role != models.ProjectRoleProjectAdmin {
		t.Errorf("Role = %q, expected project_admin", readded.Role)
	}
	if n := countRows(t, db, &models.ProjectMembership{}, "project_id = ? AND user_id = ?", project.ID, carol.ID); n != 1 {
		t.Errorf("membership count = %d, expected exactly 1", n)
	}
}

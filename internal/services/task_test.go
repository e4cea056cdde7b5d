package services

import (
	"testing"

	"github.com/projecthub/backend/internal/models"
	"github.com/projecthub/backend/pkg/response"
)

func TestTaskService_CreateWithAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	addTestMember(t, db, project, carol, models.ProjectRoleMember)

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "write docs", AssigneeID: &carol.ID}, owner)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Status != models.TaskStatusTodo {
		t.Errorf("Status = %q, expected the todo default", task.Status)
	}
	if task.AssigneeID == nil || *task.AssigneeID != carol.ID {
		t.Error("assignee not recorded")
	}
	if task.CreatedByID != owner.ID {
		t.Errorf("CreatedByID = %d, expected %d", task.CreatedByID, owner.ID)
	}
}

func TestTaskService_CreateRejectsNonMemberAssignee(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	outsider := createTestUser(t, db, "outsider", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	_, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task", AssigneeID: &outsider.ID}, owner)
	if response.KindOf(err) != response.KindInvalidArgument {
		t.Errorf("err = %v, expected InvalidArgument", err)
	}
}

func TestTaskService_CreateRejectsBadStatus(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	_, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task", Status: "archived"}, owner)
	if response.KindOf(err) != response.KindInvalidArgument {
		t.Errorf("err = %v, expected InvalidArgument", err)
	}
}

func TestTaskService_MemberMovesOwnTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task", AssigneeID: &carol.ID}, owner)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(project.ID, task.ID, &UpdateTaskRequest{Status: "in_progress"}, membership)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != models.TaskStatusInProgress {
		t.Errorf("Status = %q, expected in_progress", updated.Status)
	}
}

func TestTaskService_MemberCannotEditFields(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task", AssigneeID: &carol.ID}, owner)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(project.ID, task.ID, &UpdateTaskRequest{Title: "renamed"}, membership)
	if response.KindOf(err) != response.KindForbidden {
		t.Errorf("title edit by member = %v, expected Forbidden", err)
	}
}

func TestTaskService_MemberCannotMoveOthersTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	carol := createTestUser(t, db, "carol", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")
	membership := addTestMember(t, db, project, carol, models.ProjectRoleMember)

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "unassigned task"}, owner)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Update(project.ID, task.ID, &UpdateTaskRequest{Status: "done"}, membership)
	if response.KindOf(err) != response.KindForbidden {
		t.Errorf("status move on unassigned task = %v, expected Forbidden", err)
	}
}

func TestTaskService_AdminEditsAnyTask(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	var adminMembership models.ProjectMembership
	if err := db.Where("project_id = ? AND user_id = ?", project.ID, owner.ID).First(&adminMembership).Error; err != nil {
		t.Fatal(err)
	}

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task"}, owner)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.Update(project.ID, task.ID, &UpdateTaskRequest{Title: "renamed", Status: "done"}, &adminMembership)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "renamed" || updated.Status != models.TaskStatusDone {
		t.Errorf("update not applied: title=%q status=%q", updated.Title, updated.Status)
	}
}

func TestTaskService_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	project := createTestProject(t, db, owner, "alpha")

	task, err := svc.Create(project.ID, &CreateTaskRequest{Title: "task"}, owner)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Subtask{TaskID: task.ID, Title: "sub", CreatedByID: owner.ID}).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&models.Attachment{TaskID: task.ID, FileName: "a.txt", StoredName: "stored-a.txt", UploadedByID: owner.ID}).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(project.ID, task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if n := countRows(t, db, &models.Task{}, "id = ?", task.ID); n != 0 {
		t.Error("task still present")
	}
	if n := countRows(t, db, &models.Subtask{}, "task_id = ?", task.ID); n != 0 {
		t.Errorf("%d subtasks remain", n)
	}
	if n := countRows(t, db, &models.Attachment{}, "task_id = ?", task.ID); n != 0 {
		t.Errorf("%d attachments remain", n)
	}
}

func TestTaskService_GetScopedToProject(t *testing.T) {
	db := setupTestDB(t)
	svc := NewTaskService(db, fastMutator(db), testFileStore(t))
	owner := createTestUser(t, db, "owner", models.SystemRoleMember)
	alpha := createTestProject(t, db, owner, "alpha")
	beta := createTestProject(t, db, owner, "beta")

	task, err := svc.Create(alpha.ID, &CreateTaskRequest{Title: "task"}, owner)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.GetByID(beta.ID, task.ID); response.KindOf(err) != response.KindNotFound {
		t.Errorf("cross-project lookup = %v, expected NotFound", err)
	}
}

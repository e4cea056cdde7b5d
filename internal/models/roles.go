package models

// SystemRole is a user's global role, independent of any project.
type SystemRole string

const (
	SystemRoleAdmin  SystemRole = "admin"
	SystemRoleMember SystemRole = "member"
)

func (r SystemRole) Valid() bool {
	switch r {
	case SystemRoleAdmin, SystemRoleMember:
		return true
	}
	return false
}

// ProjectRole is a user's role within one specific project, stored in a
// ProjectMembership record.
type ProjectRole string

const (
	ProjectRoleAdmin        ProjectRole = "admin"
	ProjectRoleProjectAdmin ProjectRole = "project_admin"
	ProjectRoleMember       ProjectRole = "member"
)

func (r ProjectRole) Valid() bool {
	switch r {
	case ProjectRoleAdmin, ProjectRoleProjectAdmin, ProjectRoleMember:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

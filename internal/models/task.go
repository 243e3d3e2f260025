package models

import (
	"time"
)

// TaskStatus represents the status of a task
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskOnHold     TaskStatus = "on-hold"
	TaskCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every task status in display order
var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskOnHold, TaskCompleted}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskOnHold, TaskCompleted:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return true
	}
	return false
}

// Task represents an assignable work item.
// CompletedAt is set if and only if Status is completed.
type Task struct {
	ID          string       `json:"id" gorm:"primaryKey" bson:"_id"`
	Title       string       `json:"title" gorm:"not null" bson:"title"`
	Description string       `json:"description" bson:"description"`
	Tags        []string     `json:"tags" gorm:"serializer:json" bson:"tags"`
	CreatedBy   string       `json:"createdBy" gorm:"column:created_by;not null;index" bson:"createdBy"`
	AssignedTo  *string      `json:"assignedTo" gorm:"column:assigned_to;index" bson:"assignedTo"`
	Status      TaskStatus   `json:"status" gorm:"not null;default:'pending'" bson:"status"`
	Priority    TaskPriority `json:"priority" gorm:"not null;default:'medium'" bson:"priority"`
	DueDate     *time.Time   `json:"dueDate" gorm:"column:due_date" bson:"dueDate"`
	CompletedAt *time.Time   `json:"completedAt" gorm:"column:completed_at" bson:"completedAt"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name for Task Model
func (Task) TableName() string {
	return "tasks"
}

// IsAssignedTo reports whether userID is the task's assignee
func (t *Task) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Clone returns a deep copy so callers can compute a new state without
// mutating the loaded one.
func (t *Task) Clone() *Task {
	c := *t
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	c.AssignedTo = cloneString(t.AssignedTo)
	c.DueDate = cloneTime(t.DueDate)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package models

import (
	"time"
)

// QueryStatus represents the status of a query
type QueryStatus string

const (
	QueryOpen       QueryStatus = "open"
	QueryInProgress QueryStatus = "in-progress"
	QueryResolved   QueryStatus = "resolved"
	QueryClosed     QueryStatus = "closed"
)

func (s QueryStatus) Valid() bool {
	switch s {
	case QueryOpen, QueryInProgress, QueryResolved, QueryClosed:
		return true
	}
	return false
}

// QueryPriority represents the priority of a query
type QueryPriority string

const (
	QueryPriorityLow    QueryPriority = "low"
	QueryPriorityMedium QueryPriority = "medium"
	QueryPriorityHigh   QueryPriority = "high"
)

func (p QueryPriority) Valid() bool {
	switch p {
	case QueryPriorityLow, QueryPriorityMedium, QueryPriorityHigh:
		return true
	}
	return false
}

// Query represents a support thread, optionally anchored to a task.
// ResolvedAt is set if and only if Status is resolved.
type Query struct {
	ID          string        `json:"id" gorm:"primaryKey" bson:"_id"`
	Title       string        `json:"title" gorm:"not null" bson:"title"`
	Description string        `json:"description" gorm:"not null" bson:"description"`
	CreatedBy   string        `json:"createdBy" gorm:"column:created_by;not null;index" bson:"createdBy"`
	AssignedTo  *string       `json:"assignedTo" gorm:"column:assigned_to;index" bson:"assignedTo"`
	TaskID      *string       `json:"task" gorm:"column:task_id;index" bson:"task"`
	Status      QueryStatus   `json:"status" gorm:"not null;default:'open'" bson:"status"`
	Priority    QueryPriority `json:"priority" gorm:"not null;default:'medium'" bson:"priority"`
	Comments    []Comment     `json:"comments" gorm:"foreignKey:QueryID" bson:"comments"`
	ResolvedAt  *time.Time    `json:"resolvedAt" gorm:"column:resolved_at" bson:"resolvedAt"`
	CreatedAt   time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// TableName specifies the table name for Query Model
func (Query) TableName() string {
	return "queries"
}

func (q *Query) IsAssignedTo(userID string) bool {
	return q.AssignedTo != nil && *q.AssignedTo == userID
}

// Clone returns a deep copy of the query, comments included.
func (q *Query) Clone() *Query {
	c := *q
	if q.Comments != nil {
		c.Comments = append([]Comment(nil), q.Comments...)
	}
	c.AssignedTo = cloneString(q.AssignedTo)
	c.TaskID = cloneString(q.TaskID)
	c.ResolvedAt = cloneTime(q.ResolvedAt)
	return &c
}

// Comment is an append-only entry on a query
type Comment struct {
	ID        string    `json:"id" gorm:"primaryKey" bson:"id"`
	QueryID   string    `json:"-" gorm:"column:query_id;not null;index" bson:"-"`
	Author    string    `json:"author" gorm:"column:author_id;not null" bson:"author"`
	Text      string    `json:"text" gorm:"not null" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// TableName specifies the table name for Comment Model
func (Comment) TableName() string {
	return "query_comments"
}

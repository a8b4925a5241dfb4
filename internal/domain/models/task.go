// internal/domain/models/task.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskDone       TaskStatus = "DONE"
)

// AllTaskStatuses is the fixed enumeration accepted by status updates.
var AllTaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskDone}

// IsValidTaskStatus reports whether v is one of AllTaskStatuses. The
// comparison is exact; "done" is not DONE.
func IsValidTaskStatus(v string) bool {
	for _, s := range AllTaskStatuses {
		if string(s) == v {
			return true
		}
	}
	return false
}

// Task is a unit of work owned by one user and optionally shared.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Status      TaskStatus         `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}

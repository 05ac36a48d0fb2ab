// ABOUTME: Identifier minting for locally-created audit entries and tasks
// ABOUTME: ULIDs keep append-only entries sortable by creation time
package models

import "github.com/oklog/ulid/v2"

func NewActivityID() string {
	return "activity-" + ulid.Make().String()
}

func NewTaskID() string {
	return "task-" + ulid.Make().String()
}

// Package service holds the task use cases: creating, listing, updating,
// completing and soft-deleting tasks on behalf of their owner.
//
// Every operation is scoped to the calling person. Mutations first resolve
// the task through the same ownership-scoped lookup as reads, so a task
// belonging to someone else is indistinguishable from one that does not
// exist. Validation runs before every write that changes user-supplied
// fields.
package service

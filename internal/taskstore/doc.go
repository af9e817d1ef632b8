// Package taskstore provides a client for the task-storage HTTP API.
//
// The API is an external collaborator that owns persistence; this client
// wraps its two operations:
//   - GET /task_list?user_id=<id> returns the stored task list for a user,
//     or a "No tasks found." sentinel when no record exists
//   - POST /task_list with {"user_id", "task_list"} replaces the list,
//     answering 200 or 201 on success
//
// Both operations return tagged result values (FetchResult, SaveResult)
// instead of errors. A failed read degrades the conversation turn to a
// placeholder context; a failed write is narrated back through the model so
// the user hears that the save did not happen. Neither may abort a turn.
//
// When configured with a shared secret, requests carry a short-lived HS256
// bearer token identifying this service to the storage API.
package taskstore

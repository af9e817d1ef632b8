package taskstore

import "fmt"

// Sentinel is the placeholder the storage API returns when a user has no
// stored task list. The orchestrator embeds it verbatim in the prompt
// context so the model knows the list is empty.
const Sentinel = "No tasks found."

// FetchResult is the outcome of a task-list read. It is a value, not an
// error: a failed read degrades the turn instead of aborting it, so the
// caller always gets something it can put in front of the model.
type FetchResult struct {
	// TaskList is the stored task list, or Sentinel when the user has no
	// record. Only meaningful when Failed is false.
	TaskList string

	// Failed indicates a transport failure or non-2xx status.
	Failed bool

	// Status is the HTTP status code on failure; zero for transport errors.
	Status int

	// Detail describes the failure for logs and degraded prompt context.
	Detail string
}

// SaveResult is the outcome of a task-list write. Write failures are
// surfaced to the model as part of the tool-result narrative rather than
// raised, so the model can tell the user the save failed.
type SaveResult struct {
	// Saved indicates the store accepted the write (status 200 or 201).
	Saved bool

	// TaskList is the trimmed task list that was sent.
	TaskList string

	// Message is the store's acknowledgement on success.
	Message string

	// Status is the HTTP status code on failure; zero for transport errors.
	Status int

	// Detail describes the failure.
	Detail string
}

// Narrative renders the result as the tool-result string fed back into the
// model conversation. It mirrors the storage API's own response vocabulary
// so the model can narrate the outcome to the user.
func (r SaveResult) Narrative() string {
	if r.Saved {
		msg := r.Message
		if msg == "" {
			msg = "Task saved successfully"
		}
		return fmt.Sprintf(`{"message": %q, "task_list": %q}`, msg, r.TaskList)
	}
	if r.Status != 0 {
		return fmt.Sprintf(`{"error": "Failed to save task list. Status Code: %d, Error: %s"}`, r.Status, r.Detail)
	}
	return fmt.Sprintf(`{"error": "Failed to save task list. Error: %s"}`, r.Detail)
}

// fetchResponse is the storage API's GET /task_list body.
type fetchResponse struct {
	TaskList string `json:"task_list"`
}

// saveRequest is the storage API's POST /task_list body. The user ID is
// always stringified; the storage key namespace is opaque strings.
type saveRequest struct {
	UserID   string `json:"user_id"`
	TaskList string `json:"task_list"`
}

// saveResponse is the storage API's POST /task_list success body.
type saveResponse struct {
	Message string `json:"message"`
}

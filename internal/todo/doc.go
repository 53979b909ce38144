// Package todo holds the task list state and the operations that mutate it.
//
// A Store owns an ordered list of tasks and the current display filter. Every
// mutation is followed by a full snapshot save through the Persister the store
// was opened with:
//
//	store, err := todo.Open(persister)
//	if errors.Is(err, todo.ErrCorruptSnapshot) {
//		// store is usable and starts empty
//	}
//	task, err := store.Add("buy milk")
//	_, err = store.Toggle(task.ID)
//	view := store.Query()
//
// # Snapshot Format
//
// The persisted snapshot is a bare JSON array of tasks:
//
//	[
//	  {"id": 1718000000000, "text": "buy milk", "completed": true},
//	  {"id": 1718000000001, "text": "walk dog", "completed": false}
//	]
//
// There is no version field. ValidateSnapshot checks raw JSON against the
// embedded JSON Schema; ValidateTasks checks decoded tasks for blank text and
// duplicate IDs.
//
// # Filters
//
//   - "all": every task
//   - "active": tasks not yet completed
//   - "completed": completed tasks
//
// The filter only affects View.Visible. View.ActiveCount always counts the
// incomplete tasks of the whole list.
//
// # Ordering
//
// Tasks keep insertion order. There is no reorder operation.
package todo

package task

import "errors"

var (
	// ErrTaskNotFound covers both a missing task and a task owned by
	// another user. The two cases are deliberately indistinguishable so
	// the API never leaks whether a foreign id exists.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyTitle indicates a missing or blank title
	ErrEmptyTitle = errors.New("title must not be empty")

	// ErrTitleTooLong indicates a title over the column limit
	ErrTitleTooLong = errors.New("title must be at most 255 characters")

	// ErrInvalidStatus indicates a status outside the enumeration
	ErrInvalidStatus = errors.New("status must be one of: TODO, IN_PROGRESS, DONE")
)

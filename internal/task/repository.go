package task

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"
)

type TaskRepository struct{}

// Every by-id operation takes the owner and composes it into the WHERE
// clause. There is intentionally no bare lookup-by-id.
type TaskRepositoryInterface interface {
	Create(tx *sql.Tx, task *Task) error
	GetByID(db *sql.DB, id, userID int) (*Task, error)
	ListByUser(db *sql.DB, userID int) ([]*Task, error)
	Update(tx *sql.Tx, task *Task) error
	Delete(tx *sql.Tx, id, userID int) error
}

func NewTaskRepository() TaskRepositoryInterface {
	return &TaskRepository{}
}

func (r *TaskRepository) Create(
	tx *sql.Tx,
	task *Task,
) error {
	query := `
		INSERT INTO tasks (
			user_id, title, description, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(
		query,
		task.UserID,
		task.Title,
		task.Description,
		task.Status,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return err
	}

	return nil
}

func (r *TaskRepository) GetByID(
	db *sql.DB,
	id, userID int,
) (*Task, error) {
	query := `
		SELECT
			id, user_id, title, description, status,
			created_at, updated_at
		FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	row := db.QueryRow(query, id, userID)

	var t Task
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	return &t, nil
}

// ListByUser returns the user's tasks, most recent first
func (r *TaskRepository) ListByUser(
	db *sql.DB,
	userID int,
) ([]*Task, error) {
	query := `
		SELECT
			id, user_id, title, description, status,
			created_at, updated_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*Task{}

	for rows.Next() {
		var t Task
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Description,
			&t.Status,
			&t.CreatedAt,
			&t.UpdatedAt,
		)
		if err != nil {
			logrus.Error("Error scanning task row: ", err)
			continue
		}
		tasks = append(tasks, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskRepository) Update(
	tx *sql.Tx,
	task *Task,
) error {
	query := `
		UPDATE tasks
		SET title = $1,
		    description = $2,
		    status = $3,
		    updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`

	result, err := tx.Exec(query, task.Title, task.Description, task.Status, task.ID, task.UserID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepository) Delete(
	tx *sql.Tx,
	id, userID int,
) error {
	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2
	`

	result, err := tx.Exec(query, id, userID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}

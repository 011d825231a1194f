package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/startup-vidyapith/apiserver/types"
)

// ApplicationRepository handles persistence for applications.
type ApplicationRepository struct {
	db *sql.DB
}

func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, student_id, founder_id, role, message, experience, skills, email, phone,
	resume, portfolio, status, previous_status, decision_reversed, reversed_at, action_by, action_date,
	responses, events, created_at, updated_at`

func scanApplication(row rowScanner) (types.Application, error) {
	var app types.Application
	var previous sql.NullString
	var reversedAt, actionDate sql.NullTime
	var actionBy sql.NullInt64
	var responsesJSON, eventsJSON []byte
	err := row.Scan(
		&app.ID,
		&app.StudentID,
		&app.FounderID,
		&app.Role,
		&app.Message,
		&app.Experience,
		&app.Skills,
		&app.Email,
		&app.Phone,
		&app.Resume,
		&app.Portfolio,
		&app.Status,
		&previous,
		&app.DecisionReversed,
		&reversedAt,
		&actionBy,
		&actionDate,
		&responsesJSON,
		&eventsJSON,
		&app.CreatedAt,
		&app.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Application{}, ErrNotFound
		}
		return types.Application{}, err
	}
	if previous.Valid {
		status := types.ApplicationStatus(previous.String)
		app.PreviousStatus = &status
	}
	if reversedAt.Valid {
		at := reversedAt.Time
		app.ReversedAt = &at
	}
	if actionBy.Valid {
		id := int(actionBy.Int64)
		app.ActionBy = &id
	}
	if actionDate.Valid {
		at := actionDate.Time
		app.ActionDate = &at
	}
	if app.Responses, err = decodeList[types.ApplicationResponse](responsesJSON); err != nil {
		return types.Application{}, err
	}
	if app.Events, err = decodeList[types.ApplicationEvent](eventsJSON); err != nil {
		return types.Application{}, err
	}
	return app, nil
}

func (r *ApplicationRepository) Get(ctx context.Context, id int) (types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = $1`
	return scanApplication(r.db.QueryRowContext(ctx, query, id))
}

// FindActive returns the application for the triple whose status is neither
// rejected nor withdrawn, or ErrNotFound.
func (r *ApplicationRepository) FindActive(ctx context.Context, studentID, founderID int, role string) (types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications
		WHERE student_id = $1 AND founder_id = $2 AND role = $3
			AND status NOT IN ('rejected', 'withdrawn')
		LIMIT 1`
	return scanApplication(r.db.QueryRowContext(ctx, query, studentID, founderID, role))
}

// ListByFounder returns the founder's applications newest-first, restricted
// to status unless it is empty.
func (r *ApplicationRepository) ListByFounder(ctx context.Context, founderID int, status types.ApplicationStatus) ([]types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE founder_id = $1`
	args := []any{founderID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, args...)
}

func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID int) ([]types.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE student_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, studentID)
}

func (r *ApplicationRepository) list(ctx context.Context, query string, args ...any) ([]types.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	apps := make([]types.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}

// CountByFounder aggregates the founder's applications per status.
func (r *ApplicationRepository) CountByFounder(ctx context.Context, founderID int) (types.StatusCounts, error) {
	const query = `SELECT status, COUNT(1) FROM applications WHERE founder_id = $1 GROUP BY status`
	rows, err := r.db.QueryContext(ctx, query, founderID)
	if err != nil {
		return types.StatusCounts{}, err
	}
	defer rows.Close()

	var counts types.StatusCounts
	for rows.Next() {
		var status types.ApplicationStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return types.StatusCounts{}, err
		}
		counts.Add(status, n)
	}
	if err := rows.Err(); err != nil {
		return types.StatusCounts{}, err
	}
	return counts, nil
}

// Create inserts app in its initial state. A second active application for
// the same triple fails with ErrDuplicate.
func (r *ApplicationRepository) Create(ctx context.Context, app types.Application) (types.Application, error) {
	now := time.Now().UTC()
	app.CreatedAt = now
	app.UpdatedAt = now

	responsesJSON, err := encodeList(app.Responses)
	if err != nil {
		return types.Application{}, err
	}
	eventsJSON, err := encodeList(app.Events)
	if err != nil {
		return types.Application{}, err
	}

	query := `
		INSERT INTO applications (student_id, founder_id, role, message, experience, skills, email, phone,
			resume, portfolio, status, responses, events, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + applicationColumns
	created, err := scanApplication(r.db.QueryRowContext(
		ctx,
		query,
		app.StudentID,
		app.FounderID,
		app.Role,
		app.Message,
		app.Experience,
		app.Skills,
		app.Email,
		app.Phone,
		app.Resume,
		app.Portfolio,
		app.Status,
		responsesJSON,
		eventsJSON,
		app.CreatedAt,
		app.UpdatedAt,
	))
	if err != nil {
		return types.Application{}, mapWriteError(err)
	}
	return created, nil
}

// UpdateStatus writes the lifecycle fields of app only if the stored status
// still equals expected. It returns ErrStaleStatus when another writer got
// there first, ErrNotFound when the row is gone and ErrDuplicate when the new
// status would reactivate a triple that already has an active application.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app types.Application, expected types.ApplicationStatus) (types.Application, error) {
	eventsJSON, err := encodeList(app.Events)
	if err != nil {
		return types.Application{}, err
	}

	query := `
		UPDATE applications
		SET status = $1,
			previous_status = $2,
			decision_reversed = $3,
			reversed_at = $4,
			action_by = $5,
			action_date = $6,
			events = $7,
			updated_at = $8
		WHERE id = $9 AND status = $10
		RETURNING ` + applicationColumns
	var previous *string
	if app.PreviousStatus != nil {
		s := string(*app.PreviousStatus)
		previous = &s
	}
	updated, err := scanApplication(r.db.QueryRowContext(
		ctx,
		query,
		app.Status,
		previous,
		app.DecisionReversed,
		app.ReversedAt,
		app.ActionBy,
		app.ActionDate,
		eventsJSON,
		app.UpdatedAt,
		app.ID,
		expected,
	))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return types.Application{}, mapWriteError(err)
	}
	if _, getErr := r.Get(ctx, app.ID); getErr != nil {
		return types.Application{}, getErr
	}
	return types.Application{}, ErrStaleStatus
}

// AppendResponse adds resp to the end of the application's response thread.
func (r *ApplicationRepository) AppendResponse(ctx context.Context, id int, resp types.ApplicationResponse) (types.Application, error) {
	respJSON, err := encodeList([]types.ApplicationResponse{resp})
	if err != nil {
		return types.Application{}, err
	}

	query := `
		UPDATE applications
		SET responses = responses || $1::jsonb,
			updated_at = $2
		WHERE id = $3
		RETURNING ` + applicationColumns
	return scanApplication(r.db.QueryRowContext(ctx, query, respJSON, resp.Timestamp, id))
}

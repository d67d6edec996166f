package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/slotmatch/slotmatch/internal/logging"
	"github.com/slotmatch/slotmatch/internal/schedule"
	"github.com/slotmatch/slotmatch/internal/store"
)

const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute

	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store implements store.Store on PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var (
	_ store.Store         = (*Store)(nil)
	_ store.ObjectionRows = (*Store)(nil)
	_ store.Pinger        = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	return New(db, logger), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logging.WithBackend(logger, "postgres")}
}

// DB exposes the pool for callers that need raw access, such as tests.
func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

type eventRow struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	Description     string    `db:"description"`
	DurationMinutes int       `db:"duration_minutes"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r eventRow) toEvent() schedule.Event {
	return schedule.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		DurationMinutes: r.DurationMinutes,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

type windowRow struct {
	ID        string    `db:"id"`
	EventID   string    `db:"event_id"`
	Date      string    `db:"date"`
	StartTime string    `db:"start_time"`
	EndTime   string    `db:"end_time"`
	CreatedAt time.Time `db:"created_at"`
}

func (r windowRow) toWindow() schedule.Window {
	return schedule.Window{
		ID:        r.ID,
		EventID:   r.EventID,
		Date:      r.Date,
		StartTime: r.StartTime,
		EndTime:   r.EndTime,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type objectionRow struct {
	ID          string         `db:"id"`
	WindowID    string         `db:"window_id"`
	Participant string         `db:"participant"`
	NGSlots     pq.StringArray `db:"ng_slots"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r objectionRow) toObjection() schedule.Objection {
	return schedule.Objection{
		ID:          r.ID,
		WindowID:    r.WindowID,
		Participant: r.Participant,
		NGSlots:     schedule.NormalizeSlots(r.NGSlots),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

const (
	eventColumns     = `id, title, description, duration_minutes, created_at`
	windowColumns    = `id, event_id, date, start_time, end_time, created_at`
	objectionColumns = `id, window_id, participant, ng_slots, created_at, updated_at`
)

func (s *Store) CreateEvent(ctx context.Context, title, description string, durationMinutes int) (schedule.Event, error) {
	if durationMinutes == 0 {
		durationMinutes = schedule.DefaultDurationMinutes
	}
	if err := schedule.ValidateEventInput(title, durationMinutes); err != nil {
		return schedule.Event{}, err
	}

	row := eventRow{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     description,
		DurationMinutes: durationMinutes,
		CreatedAt:       time.Now().UTC(),
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (:id, :title, :description, :duration_minutes, :created_at)`, row)
	if err != nil {
		return schedule.Event{}, fmt.Errorf("failed to insert event: %w", err)
	}
	return row.toEvent(), nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (schedule.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Event{}, fmt.Errorf("event %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return schedule.Event{}, fmt.Errorf("failed to get event: %w", err)
	}
	return row.toEvent(), nil
}

func (s *Store) ListRecentEvents(ctx context.Context, since time.Time) ([]schedule.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+eventColumns+` FROM events WHERE created_at >= $1 ORDER BY created_at DESC, id`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]schedule.Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (s *Store) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return int(n), nil
}

func (s *Store) ListWindows(ctx context.Context, eventID string) ([]schedule.Window, error) {
	var rows []windowRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+windowColumns+` FROM windows WHERE event_id = $1 ORDER BY date, start_time, id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	windows := make([]schedule.Window, 0, len(rows))
	for _, r := range rows {
		windows = append(windows, r.toWindow())
	}
	return windows, nil
}

// ReplaceWindows runs in one transaction so readers never observe an event
// with neither its old nor its new windows.
func (s *Store) ReplaceWindows(ctx context.Context, eventID string, inputs []schedule.WindowInput) ([]schedule.Window, error) {
	for _, in := range inputs {
		if err := schedule.ValidateWindowInput(in); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID); err != nil {
		return nil, fmt.Errorf("failed to check event: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("event %q: %w", eventID, store.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM windows WHERE event_id = $1`, eventID); err != nil {
		return nil, fmt.Errorf("failed to delete windows: %w", err)
	}

	created := make([]schedule.Window, 0, len(inputs))
	for _, in := range inputs {
		row := newWindowRow(eventID, in)
		if err := insertWindow(ctx, tx, row); err != nil {
			return nil, err
		}
		created = append(created, row.toWindow())
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit windows: %w", err)
	}
	schedule.SortWindows(created)
	return created, nil
}

func (s *Store) AddWindow(ctx context.Context, eventID string, in schedule.WindowInput) (schedule.Window, error) {
	if err := schedule.ValidateWindowInput(in); err != nil {
		return schedule.Window{}, err
	}
	row := newWindowRow(eventID, in)
	if err := insertWindow(ctx, s.db, row); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return schedule.Window{}, fmt.Errorf("event %q: %w", eventID, store.ErrNotFound)
		}
		return schedule.Window{}, err
	}
	return row.toWindow(), nil
}

func newWindowRow(eventID string, in schedule.WindowInput) windowRow {
	return windowRow{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		CreatedAt: time.Now().UTC(),
	}
}

func insertWindow(ctx context.Context, ext sqlx.ExtContext, row windowRow) error {
	_, err := sqlx.NamedExecContext(ctx, ext,
		`INSERT INTO windows (`+windowColumns+`) VALUES (:id, :event_id, :date, :start_time, :end_time, :created_at)`, row)
	if err != nil {
		return fmt.Errorf("failed to insert window: %w", err)
	}
	return nil
}

func (s *Store) ListObjections(ctx context.Context, windowIDs []string) ([]schedule.Objection, error) {
	if len(windowIDs) == 0 {
		return []schedule.Objection{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+objectionColumns+` FROM objections WHERE window_id IN (?) ORDER BY window_id, created_at, id`, windowIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build objection query: %w", err)
	}

	var rows []objectionRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list objections: %w", err)
	}
	objections := make([]schedule.Objection, 0, len(rows))
	for _, r := range rows {
		objections = append(objections, r.toObjection())
	}
	return objections, nil
}

func (s *Store) UpsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	o, err := store.UpsertObjection(ctx, s, windowID, participant, ngSlots)
	if err != nil {
		return schedule.Objection{}, err
	}
	s.logger.Debug("objection saved",
		logging.Window(windowID),
		logging.ParticipantHash(o.Participant))
	return o, nil
}

func (s *Store) FindObjection(ctx context.Context, windowID, participant string) (schedule.Objection, error) {
	var row objectionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+objectionColumns+` FROM objections WHERE window_id = $1 AND participant = $2`, windowID, participant)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Objection{}, store.ErrNotFound
	}
	if err != nil {
		return schedule.Objection{}, fmt.Errorf("failed to find objection: %w", err)
	}
	return row.toObjection(), nil
}

func (s *Store) InsertObjection(ctx context.Context, windowID, participant string, ngSlots []string) (schedule.Objection, error) {
	now := time.Now().UTC()
	row := objectionRow{
		ID:          uuid.NewString(),
		WindowID:    windowID,
		Participant: participant,
		NGSlots:     pq.StringArray(schedule.NormalizeSlots(ngSlots)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.NamedExecContext(ctx,
		`INSERT INTO objections (`+objectionColumns+`) VALUES (:id, :window_id, :participant, :ng_slots, :created_at, :updated_at)`, row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case uniqueViolation:
				return schedule.Objection{}, store.ErrConflict
			case foreignKeyViolation:
				return schedule.Objection{}, fmt.Errorf("window %q: %w", windowID, store.ErrNotFound)
			}
		}
		return schedule.Objection{}, fmt.Errorf("failed to insert objection: %w", err)
	}
	return row.toObjection(), nil
}

func (s *Store) UpdateObjectionSlots(ctx context.Context, id string, ngSlots []string) (schedule.Objection, error) {
	var row objectionRow
	err := s.db.GetContext(ctx, &row,
		`UPDATE objections SET ng_slots = $2, updated_at = now() WHERE id = $1 RETURNING `+objectionColumns,
		id, pq.StringArray(schedule.NormalizeSlots(ngSlots)))
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Objection{}, fmt.Errorf("objection %q: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return schedule.Objection{}, fmt.Errorf("failed to update objection: %w", err)
	}
	return row.toObjection(), nil
}

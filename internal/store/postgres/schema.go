package postgres

import (
	"context"
	"fmt"
)

// NotifyChannel is the LISTEN/NOTIFY channel the change trigger publishes on.
const NotifyChannel = "slotmatch_changes"

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id               TEXT PRIMARY KEY,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS events_created_at_idx ON events (created_at);

CREATE TABLE IF NOT EXISTS windows (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL REFERENCES events (id) ON DELETE CASCADE,
	date       TEXT NOT NULL CHECK (date ~ '^\d{4}-\d{2}-\d{2}$'),
	start_time TEXT NOT NULL CHECK (start_time ~ '^\d{2}:\d{2}$'),
	end_time   TEXT NOT NULL CHECK (end_time ~ '^\d{2}:\d{2}$'),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS windows_event_id_idx ON windows (event_id);

CREATE TABLE IF NOT EXISTS objections (
	id          TEXT PRIMARY KEY,
	window_id   TEXT NOT NULL REFERENCES windows (id) ON DELETE CASCADE,
	participant TEXT NOT NULL,
	ng_slots    TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (window_id, participant)
);

CREATE OR REPLACE FUNCTION slotmatch_notify() RETURNS trigger AS $$
DECLARE
	rec      RECORD;
	ev_id    TEXT;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rec := OLD;
	ELSE
		rec := NEW;
	END IF;

	IF TG_TABLE_NAME = 'windows' THEN
		ev_id := rec.event_id;
	ELSE
		SELECT w.event_id INTO ev_id FROM windows w WHERE w.id = rec.window_id;
	END IF;

	-- Objections removed by a window cascade have no parent left; the
	-- window's own DELETE already tells readers to drop them.
	IF ev_id IS NOT NULL THEN
		PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
			'op', TG_OP,
			'table', TG_TABLE_NAME,
			'event_id', ev_id,
			'row', to_jsonb(rec)
		)::text);
	END IF;
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS windows_notify ON windows;
CREATE TRIGGER windows_notify AFTER INSERT OR UPDATE OR DELETE ON windows
	FOR EACH ROW EXECUTE FUNCTION slotmatch_notify();

DROP TRIGGER IF EXISTS objections_notify ON objections;
CREATE TRIGGER objections_notify AFTER INSERT OR UPDATE OR DELETE ON objections
	FOR EACH ROW EXECUTE FUNCTION slotmatch_notify();
`

// Migrate creates the tables and the change trigger. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Info("schema applied")
	return nil
}

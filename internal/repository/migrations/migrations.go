package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Migrations struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Migrations {
	return &Migrations{pool: pool}
}

func (m *Migrations) Setup(ctx context.Context) error {
	if err := m.setupSnapshotTable(ctx); err != nil {
		return fmt.Errorf("setup snapshot_quote: %w", err)
	}
	if err := m.setupRequestLogTable(ctx); err != nil {
		return fmt.Errorf("setup request_log: %w", err)
	}
	return nil
}

func (m *Migrations) setupSnapshotTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
create table if not exists snapshot_quote (
  snapshot_date date not null,
  position      integer not null,
  currency      text not null,
  buying        numeric(20, 10) not null,
  selling       numeric(20, 10) not null,
  other         text not null default '',
  primary key (snapshot_date, position)
);

create index if not exists idx_snapshot_quote_date
  on snapshot_quote (snapshot_date asc);
`)
	if err != nil {
		return fmt.Errorf("ensure table snapshot_quote: %w", err)
	}
	return nil
}

func (m *Migrations) setupRequestLogTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
create table if not exists request_log (
  id          bigserial primary key,
  path        text not null,
  status      integer,
  date_as_of  date,
  created_at  timestamptz not null default now()
);

create index if not exists idx_request_log_created_at
  on request_log (created_at desc);
`)
	if err != nil {
		return fmt.Errorf("ensure table request_log: %w", err)
	}
	return nil
}

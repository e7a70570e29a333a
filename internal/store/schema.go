package store

import "context"

const schema = `
create table if not exists users (
	id bigserial primary key,
	email text not null unique,
	name text not null,
	password_hash text not null,
	role text not null check (role in ('ADMIN', 'STAFF')),
	permissions text[] not null default '{}',
	is_active boolean not null default true,
	created_at timestamptz not null default now()
);

create table if not exists user_sessions (
	id bigserial primary key,
	user_id bigint not null references users(id),
	status text not null default 'ACTIVE',
	expires_at timestamptz not null,
	created_at timestamptz not null default now(),
	revoked_at timestamptz
);

create table if not exists dining_tables (
	id bigserial primary key,
	number text not null unique,
	seats int not null default 4,
	status text not null default 'available' check (status in ('available', 'occupied'))
);

create table if not exists tax_settings (
	id int primary key default 1 check (id = 1),
	tax_rate numeric(6,4) not null,
	service_tax_rate numeric(6,4) not null,
	tax_name text not null,
	currency_symbol text not null,
	updated_at timestamptz not null default now(),
	updated_by_user_id bigint references users(id)
);

create table if not exists payments (
	id bigserial primary key,
	receipt_number text not null unique,
	method text not null,
	subtotal numeric(12,2) not null,
	tax_amount numeric(12,4) not null,
	service_tax_amount numeric(12,4) not null,
	rounding_adjustment numeric(12,4) not null default 0,
	amount numeric(12,2) not null,
	amount_tendered numeric(12,2),
	change_amount numeric(12,2) not null default 0,
	tax_rate numeric(6,4) not null,
	service_tax_rate numeric(6,4) not null,
	tax_name text not null,
	currency_symbol text not null,
	raw_lines text,
	cashier_user_id bigint references users(id),
	paid_at timestamptz not null default now()
);

create table if not exists orders (
	id bigserial primary key,
	order_number text not null unique,
	table_id bigint references dining_tables(id),
	status text not null default 'pending' check (status in ('pending', 'processing', 'completed', 'cancelled')),
	subtotal numeric(12,2) not null default 0,
	note text,
	cancel_reason text,
	payment_id bigint references payments(id),
	paid_at timestamptz,
	processing_at timestamptz,
	completed_at timestamptz,
	cancelled_at timestamptz,
	created_at timestamptz not null default now(),
	updated_at timestamptz not null default now()
);

create table if not exists order_items (
	id bigserial primary key,
	order_id bigint not null references orders(id) on delete cascade,
	menu_item_id bigint,
	name text not null,
	quantity int not null check (quantity > 0),
	unit_price numeric(12,2) not null check (unit_price >= 0),
	created_at timestamptz not null default now()
);

create table if not exists kitchen_tickets (
	id bigserial primary key,
	order_id bigint not null references orders(id) on delete cascade,
	order_item_id bigint not null unique references order_items(id) on delete cascade,
	status text not null default 'pending' check (status in ('pending', 'processing', 'completed', 'cancelled')),
	updated_at timestamptz not null default now()
);

create table if not exists cancelled_items (
	id bigserial primary key,
	order_id bigint not null references orders(id),
	order_item_id bigint not null,
	name text not null,
	quantity int not null,
	unit_price numeric(12,2) not null,
	reason text,
	cancelled_by_user_id bigint references users(id),
	cancelled_at timestamptz not null default now()
);

create table if not exists payment_lines (
	id bigserial primary key,
	payment_id bigint not null references payments(id),
	order_id bigint not null references orders(id),
	order_item_id bigint,
	name text not null,
	quantity int not null,
	unit_price numeric(12,2) not null
);

create table if not exists activity_logs (
	id bigserial primary key,
	event_id text unique,
	event_type text not null,
	order_id bigint,
	payment_id bigint,
	user_id bigint,
	payload jsonb not null default '{}',
	created_at timestamptz not null default now()
);

create index if not exists orders_status_idx on orders (status);
create index if not exists orders_payment_idx on orders (payment_id);
create index if not exists payments_paid_at_idx on payments (paid_at);
`

// EnsureSchema creates the tables this service needs when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

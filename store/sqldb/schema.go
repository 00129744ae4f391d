package sqldb

// Each schema is a list of single statements so it can be applied by
// drivers that do not allow multi-statement Exec (MySQL without
// multiStatements=true).

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS hotels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS room_types (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hotel_id INTEGER NOT NULL REFERENCES hotels(id),
		name TEXT NOT NULL,
		adults_max INTEGER NOT NULL DEFAULT 2,
		children_max INTEGER NOT NULL DEFAULT 0,
		adults_extra_max INTEGER NOT NULL DEFAULT 0,
		children_extra_max INTEGER NOT NULL DEFAULT 0,
		adult_extra_price TEXT NOT NULL DEFAULT '0',
		child_extra_price TEXT NOT NULL DEFAULT '0',
		extra_beds_max INTEGER NOT NULL DEFAULT 0,
		extra_bed_price TEXT NOT NULL DEFAULT '0'
	)`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hotel_id INTEGER NOT NULL REFERENCES hotels(id),
		type_id INTEGER NOT NULL REFERENCES room_types(id),
		number TEXT NOT NULL,
		floor INTEGER NOT NULL DEFAULT 0,
		base_rate TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'available',
		notes TEXT NOT NULL DEFAULT '',
		UNIQUE(hotel_id, number)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_alternates ON rooms(hotel_id, type_id, state)`,

	`CREATE TABLE IF NOT EXISTS charge_concepts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		default_amount TEXT NOT NULL DEFAULT '0'
	)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hotel_id INTEGER NOT NULL REFERENCES hotels(id),
		room_id INTEGER NOT NULL REFERENCES rooms(id),
		folio TEXT NOT NULL,
		guest_first_name TEXT NOT NULL,
		guest_last_name1 TEXT NOT NULL,
		guest_last_name2 TEXT NOT NULL DEFAULT '',
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		adults INTEGER NOT NULL,
		children INTEGER NOT NULL DEFAULT 0,
		extra_beds INTEGER NOT NULL DEFAULT 0,
		nightly_rate TEXT NOT NULL,
		total TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT 'cash',
		state TEXT NOT NULL DEFAULT 'activa',
		created_by INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(hotel_id, folio),
		CHECK (check_out > check_in)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_room_state
		ON reservations(room_id, state, check_in, check_out)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_hotel_checkin
		ON reservations(hotel_id, check_in)`,

	// Ledger (append-only)
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reservation_id INTEGER NOT NULL REFERENCES reservations(id),
		kind TEXT NOT NULL CHECK (kind IN ('charge', 'payment')),
		concept_id INTEGER REFERENCES charge_concepts(id),
		origin TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		created_by INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		note TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_reservation ON ledger_entries(reservation_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_cashier_payments ON ledger_entries(created_by, kind, created_at)`,
	`CREATE TRIGGER IF NOT EXISTS ledger_entries_no_update BEFORE UPDATE ON ledger_entries
	BEGIN
		SELECT RAISE(ABORT, 'ledger entries are append-only');
	END`,
	`CREATE TRIGGER IF NOT EXISTS ledger_entries_no_delete BEFORE DELETE ON ledger_entries
	BEGIN
		SELECT RAISE(ABORT, 'ledger entries are append-only');
	END`,

	`CREATE TABLE IF NOT EXISTS folio_sequences (
		hotel_id INTEGER PRIMARY KEY REFERENCES hotels(id),
		last_value INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS drawer_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cashier_id INTEGER NOT NULL,
		hotel_id INTEGER NOT NULL REFERENCES hotels(id),
		opened_at DATETIME NOT NULL,
		closed_at DATETIME,
		total_cash TEXT NOT NULL DEFAULT '0',
		total_card TEXT NOT NULL DEFAULT '0',
		total_general TEXT NOT NULL DEFAULT '0',
		transactions INTEGER NOT NULL DEFAULT 0,
		note TEXT NOT NULL DEFAULT ''
	)`,
	// one open session per cashier and hotel
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_drawer_one_open
		ON drawer_sessions(cashier_id, hotel_id) WHERE closed_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_drawer_hotel_opened ON drawer_sessions(hotel_id, opened_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS hotels (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(16) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS room_types (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		hotel_id BIGINT NOT NULL,
		name VARCHAR(255) NOT NULL,
		adults_max INT NOT NULL DEFAULT 2,
		children_max INT NOT NULL DEFAULT 0,
		adults_extra_max INT NOT NULL DEFAULT 0,
		children_extra_max INT NOT NULL DEFAULT 0,
		adult_extra_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		child_extra_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		extra_beds_max INT NOT NULL DEFAULT 0,
		extra_bed_price DECIMAL(12,2) NOT NULL DEFAULT 0,
		FOREIGN KEY (hotel_id) REFERENCES hotels(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		hotel_id BIGINT NOT NULL,
		type_id BIGINT NOT NULL,
		number VARCHAR(16) NOT NULL,
		floor INT NOT NULL DEFAULT 0,
		base_rate DECIMAL(12,2) NOT NULL,
		state VARCHAR(32) NOT NULL DEFAULT 'available',
		notes TEXT NOT NULL,
		UNIQUE KEY uq_rooms_hotel_number (hotel_id, number),
		KEY idx_rooms_alternates (hotel_id, type_id, state),
		FOREIGN KEY (hotel_id) REFERENCES hotels(id),
		FOREIGN KEY (type_id) REFERENCES room_types(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS charge_concepts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(32) NOT NULL UNIQUE,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		default_amount DECIMAL(12,2) NOT NULL DEFAULT 0
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		hotel_id BIGINT NOT NULL,
		room_id BIGINT NOT NULL,
		folio VARCHAR(32) NOT NULL,
		guest_first_name VARCHAR(255) NOT NULL,
		guest_last_name1 VARCHAR(255) NOT NULL,
		guest_last_name2 VARCHAR(255) NOT NULL DEFAULT '',
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		adults INT NOT NULL,
		children INT NOT NULL DEFAULT 0,
		extra_beds INT NOT NULL DEFAULT 0,
		nightly_rate DECIMAL(12,2) NOT NULL,
		total DECIMAL(12,2) NOT NULL,
		payment_method VARCHAR(16) NOT NULL DEFAULT 'cash',
		state VARCHAR(16) NOT NULL DEFAULT 'activa',
		created_by BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		UNIQUE KEY uq_reservations_folio (hotel_id, folio),
		KEY idx_reservations_room_state (room_id, state, check_in, check_out),
		KEY idx_reservations_hotel_checkin (hotel_id, check_in),
		CONSTRAINT chk_reservation_range CHECK (check_out > check_in),
		FOREIGN KEY (hotel_id) REFERENCES hotels(id),
		FOREIGN KEY (room_id) REFERENCES rooms(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		reservation_id BIGINT NOT NULL,
		kind ENUM('charge', 'payment') NOT NULL,
		concept_id BIGINT NULL,
		origin VARCHAR(32) NOT NULL,
		description VARCHAR(255) NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		payment_method VARCHAR(16) NOT NULL DEFAULT '',
		created_by BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		note TEXT NOT NULL,
		KEY idx_ledger_reservation (reservation_id, id),
		KEY idx_ledger_cashier_payments (created_by, kind, created_at),
		FOREIGN KEY (reservation_id) REFERENCES reservations(id),
		FOREIGN KEY (concept_id) REFERENCES charge_concepts(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS folio_sequences (
		hotel_id BIGINT PRIMARY KEY,
		last_value INT NOT NULL,
		FOREIGN KEY (hotel_id) REFERENCES hotels(id)
	) ENGINE=InnoDB`,

	// open_marker is 1 while open and NULL once closed; NULLs never collide
	// in a unique key, so this allows one open session per cashier and hotel.
	`CREATE TABLE IF NOT EXISTS drawer_sessions (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		cashier_id BIGINT NOT NULL,
		hotel_id BIGINT NOT NULL,
		opened_at DATETIME(6) NOT NULL,
		closed_at DATETIME(6) NULL,
		total_cash DECIMAL(12,2) NOT NULL DEFAULT 0,
		total_card DECIMAL(12,2) NOT NULL DEFAULT 0,
		total_general DECIMAL(12,2) NOT NULL DEFAULT 0,
		transactions INT NOT NULL DEFAULT 0,
		note TEXT NOT NULL,
		open_marker TINYINT AS (IF(closed_at IS NULL, 1, NULL)) STORED,
		UNIQUE KEY uq_drawer_one_open (cashier_id, hotel_id, open_marker),
		KEY idx_drawer_hotel_opened (hotel_id, opened_at),
		FOREIGN KEY (hotel_id) REFERENCES hotels(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// dropStatements removes tables children first.
var dropStatements = []string{
	`DROP TABLE IF EXISTS drawer_sessions`,
	`DROP TABLE IF EXISTS folio_sequences`,
	`DROP TABLE IF EXISTS ledger_entries`,
	`DROP TABLE IF EXISTS reservations`,
	`DROP TABLE IF EXISTS charge_concepts`,
	`DROP TABLE IF EXISTS rooms`,
	`DROP TABLE IF EXISTS room_types`,
	`DROP TABLE IF EXISTS hotels`,
}

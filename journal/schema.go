package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	created DATETIME NOT NULL,
	start_date DATETIME,
	end_date DATETIME,
	config BLOB,
	sectors INTEGER NOT NULL DEFAULT 0,
	tested INTEGER NOT NULL DEFAULT 0,
	candidates INTEGER NOT NULL DEFAULT 0,
	pairs INTEGER NOT NULL DEFAULT 0,
	trades INTEGER NOT NULL DEFAULT 0,
	total_pnl REAL NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidates (
	run_id TEXT NOT NULL,
	sector TEXT NOT NULL,
	x TEXT NOT NULL,
	y TEXT NOT NULL,
	correlation REAL NOT NULL,
	coint_pvalue REAL NOT NULL,
	alt_pvalue REAL NOT NULL,
	spread_adf REAL NOT NULL,
	hedge_ratio REAL NOT NULL,
	half_life REAL,
	hurst REAL NOT NULL,
	current_z REAL,
	PRIMARY KEY (run_id, x, y)
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	x TEXT NOT NULL,
	y TEXT NOT NULL,
	side TEXT NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	entry_z REAL NOT NULL,
	exit_z REAL NOT NULL,
	entry_price_x REAL NOT NULL,
	entry_price_y REAL NOT NULL,
	exit_price_x REAL NOT NULL,
	exit_price_y REAL NOT NULL,
	hedge_ratio REAL NOT NULL,
	shares_x REAL NOT NULL,
	shares_y REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	holding_days INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, entry_date);
CREATE INDEX IF NOT EXISTS idx_candidates_run ON candidates(run_id, coint_pvalue);
`

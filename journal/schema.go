package journal

const schema = `
CREATE TABLE IF NOT EXISTS fills (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	market_id TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL,
	reference_price REAL,
	executed_price REAL,
	fee REAL,
	slippage REAL,
	success INTEGER NOT NULL,
	error TEXT
);

CREATE TABLE IF NOT EXISTS closes (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	market_id TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	pnl REAL NOT NULL,
	opened_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	total_trades INTEGER NOT NULL,
	winning_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	total_pnl REAL NOT NULL,
	roi REAL NOT NULL,
	avg_win REAL NOT NULL,
	avg_loss REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	sharpe_ratio REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_market ON fills(market_id);
CREATE INDEX IF NOT EXISTS idx_closes_market ON closes(market_id);
`

// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	instruments TEXT NOT NULL,
	days INTEGER NOT NULL,
	lookahead INTEGER NOT NULL,
	threshold REAL NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	profit REAL NOT NULL,
	entries INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	day INTEGER NOT NULL,
	instrument TEXT NOT NULL,
	action TEXT NOT NULL,
	price REAL NOT NULL,
	balance REAL NOT NULL,
	reason TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_entries_instrument ON entries(run_id, instrument);
`

// journal/schema.go
package journal

// Decimals are stored as TEXT so no precision is lost to REAL. Variable
// maps, seasonal factors, life events and breakdowns are JSON documents.
const Schema = `
CREATE TABLE IF NOT EXISTS components (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	formula TEXT NOT NULL,
	variables TEXT NOT NULL DEFAULT '{}',
	start_date TEXT NOT NULL,
	end_date TEXT,
	frequency TEXT NOT NULL,
	seasonal_factors TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_components_owner ON components(owner_id);

CREATE TABLE IF NOT EXISTS scenarios (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	is_default INTEGER NOT NULL DEFAULT 0,
	start_date TEXT NOT NULL,
	projection_months INTEGER NOT NULL,
	life_events TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scenarios_owner ON scenarios(owner_id);

CREATE TABLE IF NOT EXISTS scenario_components (
	scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	component_id TEXT NOT NULL REFERENCES components(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	variable_overrides TEXT NOT NULL DEFAULT '{}',
	start_date_override TEXT,
	end_date_override TEXT,
	PRIMARY KEY (scenario_id, component_id)
);

CREATE TABLE IF NOT EXISTS projections (
	scenario_id TEXT NOT NULL REFERENCES scenarios(id) ON DELETE CASCADE,
	month_number INTEGER NOT NULL,
	projection_date TEXT NOT NULL,
	total_income TEXT NOT NULL,
	total_expenses TEXT NOT NULL,
	net_cash_flow TEXT NOT NULL,
	total_assets TEXT NOT NULL,
	total_liabilities TEXT NOT NULL,
	net_worth TEXT NOT NULL,
	component_breakdown TEXT NOT NULL DEFAULT '{}',
	active_life_events TEXT NOT NULL DEFAULT '[]',
	calculated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (scenario_id, month_number)
);
`

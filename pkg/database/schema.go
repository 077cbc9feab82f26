package database

// Schema returns the full ordered migration set for the service
func Schema() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_requests",
			SQL: `
				CREATE TABLE IF NOT EXISTS requests (
					id TEXT PRIMARY KEY,
					requester_id TEXT NOT NULL,
					trip_type TEXT NOT NULL,
					destination TEXT NOT NULL,
					purpose TEXT NOT NULL,
					departure_time DATETIME NOT NULL,
					passenger_count INTEGER NOT NULL,
					current_stage TEXT NOT NULL,
					status TEXT NOT NULL,
					declined_by TEXT,
					declined_role TEXT,
					decline_reason TEXT,
					declined_at DATETIME,
					vehicle_id TEXT,
					plate_number TEXT,
					driver_name TEXT,
					driver_contact TEXT,
					urgent INTEGER NOT NULL DEFAULT 0,
					assigned_by TEXT,
					assigned_at DATETIME,
					version INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_requests_requester ON requests(requester_id);
				CREATE INDEX IF NOT EXISTS idx_requests_stage ON requests(current_stage);
				CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
			`,
		},
		{
			Version: 2,
			Name:    "create_stage_approvals",
			SQL: `
				CREATE TABLE IF NOT EXISTS stage_approvals (
					request_id TEXT NOT NULL REFERENCES requests(id),
					seq INTEGER NOT NULL,
					stage TEXT NOT NULL,
					status TEXT NOT NULL,
					approved_by TEXT,
					approved_at DATETIME,
					comments TEXT,
					PRIMARY KEY (request_id, stage)
				);
			`,
		},
		{
			Version: 3,
			Name:    "create_notifications",
			SQL: `
				CREATE TABLE IF NOT EXISTS notifications (
					request_id TEXT NOT NULL REFERENCES requests(id),
					seq INTEGER NOT NULL,
					recipient TEXT NOT NULL,
					message TEXT NOT NULL,
					type TEXT NOT NULL,
					created_at DATETIME NOT NULL,
					PRIMARY KEY (request_id, seq)
				);
			`,
		},
		{
			Version: 4,
			Name:    "create_identities",
			SQL: `
				CREATE TABLE IF NOT EXISTS identities (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					role TEXT NOT NULL,
					delegated_role TEXT,
					delegation_start DATETIME,
					delegation_end DATETIME,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
			`,
		},
		{
			Version: 5,
			Name:    "create_facilities",
			SQL: `
				CREATE TABLE IF NOT EXISTS facilities (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					category TEXT NOT NULL,
					town TEXT NOT NULL,
					capacity INTEGER NOT NULL DEFAULT 0,
					notes TEXT,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_facilities_name ON facilities(name);
			`,
		},
		{
			Version: 6,
			Name:    "create_audit_logs",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					event_id TEXT NOT NULL,
					actor_id TEXT NOT NULL,
					actor_role TEXT NOT NULL,
					action TEXT NOT NULL,
					description TEXT,
					request_id TEXT,
					metadata TEXT,
					created_at DATETIME NOT NULL
				);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_request ON audit_logs(request_id);
			`,
		},
	}
}

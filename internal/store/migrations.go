package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Users table - one row per trainee
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			age INTEGER,
			gender TEXT,
			created_at TEXT NOT NULL
		)`,

		// Sessions table - one row per completed training session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			avg_reaction REAL NOT NULL,
			min_reaction REAL NOT NULL,
			max_reaction REAL NOT NULL,
			std_deviation REAL NOT NULL,
			total_wrong INTEGER NOT NULL,
			trials_completed INTEGER NOT NULL,
			trials_required INTEGER NOT NULL,
			rounds_presented INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			difficulty TEXT NOT NULL DEFAULT 'medium',
			trials_data TEXT NOT NULL DEFAULT '[]',
			synced INTEGER NOT NULL DEFAULT 0
		)`,

		// Active session table - the logged-in user, last login wins
		`CREATE TABLE IF NOT EXISTS active_session (
			user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			last_login TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_synced ON sessions(synced)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

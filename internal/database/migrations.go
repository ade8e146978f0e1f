package database

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username VARCHAR(150) UNIQUE NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		url TEXT NOT NULL,
		validator_kind VARCHAR(50),
		validator_value TEXT,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK ((validator_kind IS NULL) = (validator_value IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id SERIAL PRIMARY KEY,
		source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		title VARCHAR(250) NOT NULL UNIQUE,
		summary TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		favorite BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id SERIAL PRIMARY KEY,
		item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_user_id ON sources(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_source_id ON items(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_favorite ON items(favorite) WHERE favorite`,
	`CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id)`,
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		validator_kind TEXT,
		validator_value TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CHECK ((validator_kind IS NULL) = (validator_value IS NULL))
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_id INTEGER NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
		title TEXT NOT NULL UNIQUE,
		summary TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		favorite BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		body TEXT NOT NULL,
		likes INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sources_user_id ON sources(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_source_id ON items(source_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_item_id ON comments(item_id)`,
}

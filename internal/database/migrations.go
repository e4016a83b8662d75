package database

type migration struct {
	id   int
	name string
	sql  string
}

var migrations = []migration{
	{
		id:   1,
		name: "create_games",
		sql: `
			CREATE TABLE games (
				id         TEXT PRIMARY KEY,
				status     TEXT NOT NULL,
				winner     INTEGER NOT NULL DEFAULT 0,
				reason     TEXT NOT NULL DEFAULT '',
				started_at INTEGER NOT NULL,
				ended_at   INTEGER NOT NULL
			);
			CREATE INDEX idx_games_ended_at ON games(ended_at);
		`,
	},
	{
		id:   2,
		name: "create_game_results",
		sql: `
			CREATE TABLE game_results (
				game_id          TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
				player_id        INTEGER NOT NULL,
				name             TEXT NOT NULL,
				color            TEXT NOT NULL,
				points           INTEGER NOT NULL,
				knights          INTEGER NOT NULL,
				has_longest_road INTEGER NOT NULL,
				has_largest_army INTEGER NOT NULL,
				PRIMARY KEY (game_id, player_id)
			);
		`,
	},
}

package metrics

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS ticks (
            timestamp INTEGER PRIMARY KEY,
            avg_power_ratio REAL,
            max_temperature INTEGER,
            computed_speed INTEGER,
            adjusted_speed INTEGER,
            previous_speed INTEGER,
            commanded INTEGER,
            telemetry_ok INTEGER
        )
    `)

	return err
}

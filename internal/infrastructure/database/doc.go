// Package database provides SQLite connectivity for driveshare.
//
// It owns the connection (WAL mode, busy timeout, single writer) and the
// schema migrations. Migrations are plain SQL files named
// YYYYMMDD_HHMMSS_description.up.sql with an optional matching .down.sql;
// the migrations package embeds them and registers them at init.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns must be nullable or carry a
// default, and columns are never dropped or renamed.
package database

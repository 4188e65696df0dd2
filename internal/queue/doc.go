// Package queue persists selected candidates in SQLite and tracks them through
// acquisition, rewriting and publishing.
//
// The Store manages the database connection, schema initialization, stats
// queries, stuck-item recovery and status transitions. Items carry the
// candidate metadata captured at scan time so a later `process` run can resume
// without rescanning sources.
//
// The database is transient storage for in-flight work rather than a
// long-term archive; the dedup ledger and the artifact tree are the durable
// records. The schema version lives in SQLite's user_version pragma; a
// database written by a different version is rejected with ErrSchemaMismatch
// and must be deleted to adopt the new layout.
package queue

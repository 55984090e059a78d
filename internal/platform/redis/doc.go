// Package redis implements the internal/store interfaces on Redis.
//
// Layout, per user ID:
//
//	<prefix>:results:<user>      hash   conceptID -> schedule record JSON
//	<prefix>:history:<user>      list   attempt entries JSON, append order
//	<prefix>:history_ids:<user>  set    entry IDs already appended
//	<prefix>:curricula:<user>    hash   kbID -> curriculum JSON
//	<prefix>:user:<id>           string user JSON
//	<prefix>:user_email:<email>  string user ID, claimed with SETNX
//
// Redis has no multi-key transactions compatible with database/sql, so the
// WithTx methods return the receiver.
package redis

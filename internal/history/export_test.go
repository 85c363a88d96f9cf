package history

import "database/sql"

// DB exposes the connection for schema tests.
func (s *Store) DB() *sql.DB { return s.db }

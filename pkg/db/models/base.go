package models

import "github.com/google/uuid"

// ensureID fills a nil primary key before insert. Postgres would default it
// with gen_random_uuid(), SQLite cannot.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

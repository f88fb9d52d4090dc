// Package ident issues record ids.
package ident

import "github.com/google/uuid"

// New returns prefix + "-" + a UUIDv7. Version 7 embeds the millisecond
// timestamp of creation, so ids sort by capture time.
func New(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

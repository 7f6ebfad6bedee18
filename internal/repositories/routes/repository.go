// Package routes is the export route ledger. A row means one copy of a record
// was accepted by the Target System for one routing key.
package routes

import "context"

const (
	EntityClient = "client"
	EntityCredit = "credit"
)

type Repository interface {
	Exported(ctx context.Context, entity, recordID, routingKey string) (bool, error)
	List(ctx context.Context, entity, recordID string) ([]string, error)
	Mark(ctx context.Context, entity, recordID, routingKey string) error
	// Clear forgets every route of a record so that it is exported again.
	Clear(ctx context.Context, entity, recordID string) error
}

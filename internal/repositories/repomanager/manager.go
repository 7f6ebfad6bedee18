package repomanager

import (
	"context"
	"database/sql"

	"github.com/fincoval/creditsync/internal/dbx"
	"github.com/fincoval/creditsync/internal/repositories/actions"
	"github.com/fincoval/creditsync/internal/repositories/clients"
	"github.com/fincoval/creditsync/internal/repositories/credentials"
	"github.com/fincoval/creditsync/internal/repositories/credits"
	"github.com/fincoval/creditsync/internal/repositories/installments"
	"github.com/fincoval/creditsync/internal/repositories/payments"
	"github.com/fincoval/creditsync/internal/repositories/routes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Clients(db dbx.DBTX) clients.Repository
	Credits(db dbx.DBTX) credits.Repository
	Payments(db dbx.DBTX) payments.Repository
	Installments(db dbx.DBTX) installments.Repository
	Actions(db dbx.DBTX) actions.Repository
	Routes(db dbx.DBTX) routes.Repository
	Credentials(db dbx.DBTX) credentials.Repository
}

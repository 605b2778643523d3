package main

import (
	"log"
	"os"

	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/identity"
	logsvc "github.com/douaaea/schoolhub/services/logger"
	"github.com/douaaea/schoolhub/storage/database"
	"github.com/douaaea/schoolhub/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("setting up database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()

	verifier, err := identity.NewVerifier(conf.Auth.CredentialScheme)
	if err != nil {
		logger.Fatal("setting up credential verifier", err)
	}

	identities := sqlxrepos.NewIdentityRepository(db)
	cli := commandLine{
		db:          db,
		identities:  identities,
		identitySvc: identity.NewService(identities, verifier),
		assignments: sqlxrepos.NewAssignmentRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		_ = db.Close()
		os.Exit(1)
	}
}

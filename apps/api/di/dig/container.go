package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/douaaea/schoolhub/apps/api/echo"
	"github.com/douaaea/schoolhub/core"
	"github.com/douaaea/schoolhub/core/artifact"
	"github.com/douaaea/schoolhub/core/assignment"
	"github.com/douaaea/schoolhub/core/grade"
	"github.com/douaaea/schoolhub/core/identity"
	"github.com/douaaea/schoolhub/core/workreturn"
	logsvc "github.com/douaaea/schoolhub/services/logger"
	"github.com/douaaea/schoolhub/services/metrics"
	"github.com/douaaea/schoolhub/storage/artifact/b2store"
	"github.com/douaaea/schoolhub/storage/artifact/diskstore"
	"github.com/douaaea/schoolhub/storage/database"
	"github.com/douaaea/schoolhub/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// ServerParams holds everything the API server is built from.
type ServerParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	DB         *sqlx.DB
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metrics.Recorder

	Resolver      *identity.Resolver
	Ingestor      *workreturn.Ingestor
	Grader        *workreturn.Grader
	WorkReturnSvc *workreturn.Service
	AssignmentSvc *assignment.Service
	GradeSvc      *grade.Service
}

// Shutdown is closed by the server whenever a handler reports a shutdown error.
type Shutdown chan struct{}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newStore(conf *core.Config) (artifact.Store, error) {
	switch conf.Storage.Backend {
	case "b2":
		return b2store.New(context.Background(), conf.Storage.B2KeyID, conf.Storage.B2AppKey, conf.Storage.B2Bucket)
	case "disk", "":
		return diskstore.New(conf.Storage.UploadDir)
	}
	return nil, errors.Errorf("unknown storage backend %q", conf.Storage.Backend)
}

func newVerifier(conf *core.Config) (identity.CredentialVerifier, error) {
	return identity.NewVerifier(conf.Auth.CredentialScheme)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newResolver(verifier identity.CredentialVerifier, repo identity.Repository) *identity.Resolver {
	return identity.NewResolver(verifier, identity.Providers(repo)...)
}

func newIngestor(
	repo workreturn.Repository,
	identities identity.Repository,
	assignments assignment.Repository,
	lifecycle *assignment.Lifecycle,
	store artifact.Store,
	rec *metrics.Recorder,
) *workreturn.Ingestor {
	return workreturn.NewIngestor(repo, identities, assignments, lifecycle, store, rec.ObserveStep)
}

func newServer(p ServerParams, shutdown Shutdown) echoapi.Server {
	var once sync.Once
	return echoapi.NewServer(&echoapi.Options{
		Address:        p.Conf.Server.Address,
		Debug:          p.Conf.Debug,
		TestMode:       p.Conf.TestMode,
		DisableReqLogs: p.Conf.Server.DisableReqLogs,
		Logger:         p.Logger,
		SignalShutdown: func() { once.Do(func() { close(shutdown) }) },
		Validate:       p.Validate,
		Translator:     p.Translator,
		Metrics:        p.Metrics,
		DB:             p.DB,
		Resolver:       p.Resolver,
		Ingestor:       p.Ingestor,
		Grader:         p.Grader,
		WorkReturnSvc:  p.WorkReturnSvc,
		AssignmentSvc:  p.AssignmentSvc,
		GradeSvc:       p.GradeSvc,
	})
}

// New returns a new dependency injection dig.Container
func New(conf *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(func() *core.Config { return conf }))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(func() Shutdown { return make(Shutdown) }))
	must(c.Provide(metrics.NewRecorder))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newStore))
	must(c.Provide(newVerifier))

	// repositories
	must(c.Provide(func(db *sqlx.DB) core.DBExecutor { return db }))
	must(c.Provide(sqlxrepos.NewIdentityRepository, dig.As(new(identity.Repository))))
	must(c.Provide(sqlxrepos.NewAssignmentRepository, dig.As(new(assignment.Repository))))
	must(c.Provide(sqlxrepos.NewGradeRepository, dig.As(new(grade.Repository))))
	must(c.Provide(sqlxrepos.NewWorkReturnRepository, dig.As(new(workreturn.Repository))))

	// services
	must(c.Provide(newResolver))
	must(c.Provide(assignment.NewLifecycle))
	must(c.Provide(assignment.NewService))
	must(c.Provide(grade.NewLedger))
	must(c.Provide(grade.NewService))
	must(c.Provide(newIngestor))
	must(c.Provide(workreturn.NewGrader))
	must(c.Provide(workreturn.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

package deps

import (
	"log"

	"github.com/carecircle/carecircle_api/config"
	"github.com/carecircle/carecircle_api/internal/db"
	"github.com/carecircle/carecircle_api/internal/http/expo"
	"github.com/carecircle/carecircle_api/internal/notify"
	"github.com/carecircle/carecircle_api/internal/scheduler"
	"github.com/carecircle/carecircle_api/internal/store"
	"github.com/carecircle/carecircle_api/pkg/logger"
	smtp "github.com/carecircle/carecircle_api/util/email"
	"github.com/carecircle/carecircle_api/util/storage"
	"github.com/carecircle/carecircle_api/util/websockets"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

type Dependencies struct {
	DB         *db.DB
	Store      *store.Store
	Cloudinary *storage.Cloudinary
	Mailer     *smtp.Mailer
	Push       *expo.Client
	Resolver   *notify.Resolver
	Dispatcher *notify.Dispatcher
	Hub        *websockets.Hub
	Scheduler  *scheduler.Scheduler
	Logger     *logrus.Logger
}

// New wires the service graph. The hub's verifier is attached later by the
// REST layer, which owns token parsing.
func New(cfg *config.Config) *Dependencies {
	lg := logger.New(cfg.LogLevel)

	if err := db.Migrate(cfg.Dsn, cfg.MigrationsPath); err != nil {
		log.Panicln("failed to run migrations", "error", err)
	}

	database, err := db.New(cfg.Dsn)
	if err != nil {
		log.Panicln("failed to connect to database", "error", err)
	}

	st := store.New(database)
	cloudinary := storage.NewCloudinary(cfg)
	mailer := smtp.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	push := expo.NewClient(cfg.ExpoAccessToken)
	resolver := notify.NewResolver(st, lg)
	dispatcher := notify.NewDispatcher(push, lg)
	hub := websockets.NewHub(st, nil, resolver, dispatcher, lg)
	sched := scheduler.New(st, resolver, dispatcher, lg, cfg.ReminderLead, cfg.ReminderInterval)

	deps := Dependencies{
		DB:         database,
		Store:      st,
		Cloudinary: cloudinary,
		Mailer:     mailer,
		Push:       push,
		Resolver:   resolver,
		Dispatcher: dispatcher,
		Hub:        hub,
		Scheduler:  sched,
		Logger:     lg,
	}
	return &deps
}

func (d *Dependencies) Pool() *pgxpool.Pool {
	return d.DB.Pool()
}

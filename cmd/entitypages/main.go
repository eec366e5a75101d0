package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/entitypages/internal/accounts"
	"github.com/jask/entitypages/internal/changefeed"
	"github.com/jask/entitypages/internal/config"
	"github.com/jask/entitypages/internal/database"
	"github.com/jask/entitypages/internal/logging"
	"github.com/jask/entitypages/internal/page"
	"github.com/jask/entitypages/internal/session"
	"github.com/jask/entitypages/internal/tui"
)

func main() {
	inMemory := flag.Bool("memory", false, "keep accounts in memory instead of sqlite")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New().ToPath(cfg.Log.Path).Level(cfg.Log.Level).Make()
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer logger.Close()

	var (
		svc  page.EntityService[accounts.Account]
		sess page.SessionService
	)
	if *inMemory {
		mem := accounts.NewMemoryService()
		cash := accounts.New("Cash")
		cash.AccountType = accounts.TypeCash
		cash.Locked = true
		if _, err := mem.Save(ctx, cash); err != nil {
			log.Fatalf("seed memory: %v", err)
		}
		svc, sess = mem, session.NewMemory()
		logger.Info().Msg("using in-memory store")
	} else {
		db, err := openDB(ctx, cfg.Database.Path)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer db.Close()
		svc, sess = accounts.NewSQLService(db, logger.Logger), session.NewSQL(db)
	}

	feed, err := changefeed.Open(changefeed.Options{
		Broker:      cfg.MQTT.Broker,
		ClientID:    cfg.MQTT.ClientID,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		QoS:         cfg.MQTT.QoS,
		Logger:      logger.Logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("change feed unavailable, running standalone")
		feed = changefeed.Nop{}
	}
	defer feed.Close()

	app, err := tui.New(ctx, tui.Options{
		Service:        svc,
		Session:        sess,
		Sink:           feed,
		PageSize:       cfg.UI.PageSize,
		CurrencySymbol: cfg.UI.CurrencySymbol,
		Logger:         logger.Logger,
	})
	if err != nil {
		log.Fatalf("accounts page: %v", err)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if err := feed.Subscribe(func(ev page.ChangeEvent) { p.Send(tui.RemoteChange(ev)) }); err != nil {
		logger.Warn().Err(err).Msg("subscribe to change feed")
	}
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
	}
}

func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := database.RunMigrations(path); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.SeedDefaults(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return db, nil
}

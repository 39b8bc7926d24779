package cli

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/userpanel/internal/directory"
	"github.com/Skotchmaster/userpanel/internal/events"
	"github.com/Skotchmaster/userpanel/internal/repo"
	"github.com/Skotchmaster/userpanel/pkg/config"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	"github.com/Skotchmaster/userpanel/pkg/logging"
)

// openStore connects to the database and brings the schema up to date.
func openStore(ctx context.Context, cfg config.Config) (*gorm.DB, *repo.GormRepo, error) {
	if err := config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL"); err != nil {
		return nil, nil, err
	}
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	r := repo.New(db)
	if err := r.Migrate(ctx); err != nil {
		_ = pkgdb.Close(db)
		return nil, nil, err
	}
	return db, r, nil
}

// newPublisher returns a kafka producer, or a no-op one when no brokers are
// configured.
func newPublisher(ctx context.Context, cfg config.Config) (events.Publisher, error) {
	l := logging.FromContext(ctx)
	if len(cfg.KafkaBrokers) == 0 {
		l.Info("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
		return events.Nop{}, nil
	}
	p, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, err
	}
	l.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return p, nil
}

// newDirectory returns the Elasticsearch directory, or the DB one when no
// cluster is configured.
func newDirectory(ctx context.Context, cfg config.Config, r *repo.GormRepo) (directory.Directory, error) {
	if cfg.ESURL == "" {
		logging.FromContext(ctx).Info("es_disabled", "reason", "ES_URL is empty")
		return directory.DB{Repo: r}, nil
	}
	es, err := directory.NewElastic(ctx, directory.ElasticConfig{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.ESIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	return es, nil
}

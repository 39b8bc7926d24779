package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/userpanel/internal/events"
	"github.com/Skotchmaster/userpanel/internal/service"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
	"github.com/Skotchmaster/userpanel/pkg/logging"
)

func newMigrateCmd(e *env) *cobra.Command {
	var (
		topics  bool
		reindex bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Example: `  userpanel migrate
  userpanel migrate --topics --reindex`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := e.context(cmd.Context())
			l := logging.FromContext(ctx)

			db, r, err := openStore(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer pkgdb.Close(db)
			l.Info("schema_migrated")

			if topics {
				if len(e.cfg.KafkaBrokers) == 0 {
					return fmt.Errorf("--topics needs KAFKA_BROKERS")
				}
				if err := events.EnsureTopic(ctx, e.cfg.KafkaBrokers[0], e.cfg.KafkaTopic); err != nil {
					return err
				}
				l.Info("kafka_topic_ready", "topic", e.cfg.KafkaTopic)
			}

			if reindex {
				if e.cfg.ESURL == "" {
					return fmt.Errorf("--reindex needs ES_URL")
				}
				dir, err := newDirectory(ctx, e.cfg, r)
				if err != nil {
					return err
				}
				svc := &service.UserService{Repo: r, Directory: dir}
				n, err := svc.ReindexAll(ctx)
				if err != nil {
					return err
				}
				l.Info("directory_reindexed", "users", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&topics, "topics", false, "also create the kafka events topic")
	cmd.Flags().BoolVar(&reindex, "reindex", false, "also push every user into the search index")
	return cmd
}

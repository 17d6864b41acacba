package reporter

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/operator-framework/usage-reporter/pkg/aws"
	"github.com/operator-framework/usage-reporter/pkg/config"
	"github.com/operator-framework/usage-reporter/pkg/notify"
	"github.com/operator-framework/usage-reporter/pkg/report"
	"github.com/operator-framework/usage-reporter/pkg/usage"
)

// NewDependencies builds the AWS backed collaborators described by cfg. With
// file storage, history is kept below cfg.DataDir, and with a dry run
// directory the email is written there instead of being sent.
func NewDependencies(logger log.FieldLogger, cfg config.Config) (Dependencies, error) {
	attributor, err := usage.NewAttributor(cfg.KnownUsers, cfg.UserIDPattern)
	if err != nil {
		return Dependencies{}, err
	}
	tmpl, err := report.LoadEmailTemplate(cfg.EmailTemplate)
	if err != nil {
		return Dependencies{}, err
	}

	sess, err := aws.NewSession(cfg.Region)
	if err != nil {
		return Dependencies{}, err
	}

	selector := aws.Selector{
		ClusterTagKey:   cfg.ClusterTagKey,
		ClusterTagValue: cfg.ClusterTagValue,
		UserTagKey:      cfg.UserTagKey,
	}

	var store usage.ObjectStore
	switch cfg.Storage {
	case config.StorageFile:
		store, err = usage.NewFileStore(cfg.DataDir)
		if err != nil {
			return Dependencies{}, err
		}
	case config.StorageS3:
		store = usage.NewS3Store(sess, cfg.Bucket)
	default:
		return Dependencies{}, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	var notifier Notifier
	if cfg.DryRun() {
		notifier, err = notify.NewDirNotifier(logger, cfg.DryRunDir)
		if err != nil {
			return Dependencies{}, err
		}
	} else {
		notifier = notify.NewSESNotifier(logger, sess)
	}

	return Dependencies{
		Inventory:     aws.NewInstanceInventory(logger, sess, selector, attributor),
		Costs:         aws.NewCostExplorer(logger, sess, selector, attributor, cfg.UsageTypeGroup),
		History:       usage.NewHistory(logger.WithField("component", "history"), store, cfg.CostKey, cfg.UsageKey),
		Notifier:      notifier,
		Attributor:    attributor,
		EmailTemplate: tmpl,
	}, nil
}

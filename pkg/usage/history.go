package usage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Snapshot is the historical state loaded at the start of a run and written
// back in full at the end of it.
type Snapshot struct {
	Costs *CostTable
	Daily *DailyTable
	// Fresh is true when neither table existed yet.
	Fresh bool
}

// History loads and saves the two tables a run works on.
type History struct {
	store    ObjectStore
	costKey  string
	dailyKey string
	logger   log.FieldLogger
}

func NewHistory(logger log.FieldLogger, store ObjectStore, costKey, dailyKey string) *History {
	return &History{
		store:    store,
		costKey:  costKey,
		dailyKey: dailyKey,
		logger:   logger,
	}
}

// Load reads both tables. Only a missing object is treated as empty history;
// any other failure is returned so a run never starts from an empty table by
// accident.
func (h *History) Load(ctx context.Context) (*Snapshot, error) {
	daily, dailyFound, err := h.loadDaily(ctx)
	if err != nil {
		return nil, err
	}
	costs, costsFound, err := h.loadCosts(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case !dailyFound && !costsFound:
		h.logger.Infof("no history found at %s and %s, starting fresh", h.store.Location(h.dailyKey), h.store.Location(h.costKey))
		return &Snapshot{Costs: NewCostTable(), Daily: NewDailyTable(), Fresh: true}, nil
	case !dailyFound:
		// Without the daily table the next window would start over at the start
		// date and every cost would be counted twice.
		return nil, fmt.Errorf("cumulative costs exist at %s but daily usage at %s is missing",
			h.store.Location(h.costKey), h.store.Location(h.dailyKey))
	case !costsFound:
		h.logger.Warnf("cumulative costs missing at %s, rebuilding from daily usage", h.store.Location(h.costKey))
		costs = NewCostTable()
	}

	reconcile(h.logger, costs, daily)
	return &Snapshot{Costs: costs, Daily: daily}, nil
}

// Save overwrites both tables, daily usage first. If the second write fails the
// next load brings the cumulative totals back up to the daily sums.
func (h *History) Save(ctx context.Context, snap *Snapshot) error {
	var buf bytes.Buffer
	if err := WriteDaily(&buf, snap.Daily); err != nil {
		return fmt.Errorf("could not encode daily usage: %w", err)
	}
	if err := h.store.Put(ctx, h.dailyKey, buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	if err := WriteCosts(&buf, snap.Costs); err != nil {
		return fmt.Errorf("could not encode cumulative costs: %w", err)
	}
	return h.store.Put(ctx, h.costKey, buf.Bytes())
}

// Locations returns where the cumulative and daily tables live.
func (h *History) Locations() (costs, daily string) {
	return h.store.Location(h.costKey), h.store.Location(h.dailyKey)
}

// Keys returns the object keys of the cumulative and daily tables.
func (h *History) Keys() (costs, daily string) {
	return h.costKey, h.dailyKey
}

func (h *History) loadCosts(ctx context.Context) (*CostTable, bool, error) {
	data, err := h.store.Get(ctx, h.costKey)
	if errors.Is(err, ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	costs, err := ReadCosts(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("could not parse %s: %w", h.store.Location(h.costKey), err)
	}
	return costs, true, nil
}

func (h *History) loadDaily(ctx context.Context) (*DailyTable, bool, error) {
	data, err := h.store.Get(ctx, h.dailyKey)
	if errors.Is(err, ErrNotExist) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	daily, err := ReadDaily(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("could not parse %s: %w", h.store.Location(h.dailyKey), err)
	}
	return daily, true, nil
}

// reconcile raises any cumulative total that is below the sum of that user's
// daily costs. Totals are never lowered.
func reconcile(logger log.FieldLogger, costs *CostTable, daily *DailyTable) {
	for user, sum := range daily.CostByUser() {
		if total := costs.Total(user); total.LessThan(sum) {
			logger.WithField("user", user).Warnf("cumulative cost %s is below daily sum %s, raising it",
				total.StringFixed(MoneyScale), sum.StringFixed(MoneyScale))
			costs.Set(user, sum)
		}
	}
}

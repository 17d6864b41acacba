package reporter

import (
	"context"
)

const runKey = "run"

// Trigger runs the report unless a run is already in progress, in which case
// it waits for that run and returns its outcome. Triggers from the scheduler
// and from the API go through here so two runs never overlap in one process.
func (r *Reporter) Trigger(ctx context.Context) (*Result, bool, error) {
	v, err, shared := r.runGroup.Do(runKey, func() (interface{}, error) {
		return r.Run(ctx)
	})
	if err != nil {
		return nil, shared, err
	}
	return v.(*Result), shared, nil
}

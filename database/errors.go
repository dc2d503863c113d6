package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/siherrmann/docgraph/helper"
	"github.com/siherrmann/docgraph/model"
)

// pqNoDataFound is raised by upsert_edge when an endpoint node is missing.
const pqNoDataFound = pq.ErrorCode("P0002")

// storeError wraps a driver error so it matches model.ErrStore,
// or model.ErrConsistencyViolation for missing edge endpoints.
func storeError(action string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqNoDataFound {
		return helper.NewError(action, fmt.Errorf("%w: %s", model.ErrConsistencyViolation, pqErr.Message))
	}

	return helper.NewError(action, fmt.Errorf("%w: %w", model.ErrStore, err))
}

func outcome(created bool) model.UpsertOutcome {
	if created {
		return model.UpsertCreated
	}
	return model.UpsertUnchanged
}

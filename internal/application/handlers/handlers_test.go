package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ersonp/provpack/internal/domain/entities"
	"github.com/ersonp/provpack/internal/domain/mocks"
	"github.com/ersonp/provpack/internal/domain/services"
	"github.com/ersonp/provpack/internal/domain/validation"
)

func newValidator(t *testing.T) *validation.Validator {
	t.Helper()
	v, err := validation.New()
	require.NoError(t, err)
	return v
}

func newBuilder() *services.CaseBuilder {
	return services.NewCaseBuilder(services.WithIDGenerator(mocks.SequentialIDs("id")))
}

// approvedCase stores the Meyer case in store and returns it.
func approvedCase(t *testing.T, store *mocks.CaseStore) *entities.Case {
	t.Helper()
	h := NewReviewHandler(newBuilder(), newValidator(t), store, nil)
	res, err := h.HandleApprove(t.Context(), mocks.MeyerPacketID, mocks.MeyerExtraction())
	require.NoError(t, err)
	return res.Case
}

package database

import (
	"testing"

	modelspkg "orgdesk/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesApproval(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.Approval); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include Approval")
}

package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

func TestDefaultPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	tests := []struct {
		name   string
		input  Input
		allow  bool
		reason string
	}{
		{
			name:  "accept open job",
			input: Input{Action: domain.JobActionAccept, Status: domain.JobStatusRequested, ActorRider: "r1"},
			allow: true,
		},
		{
			name:   "accept taken job",
			input:  Input{Action: domain.JobActionAccept, Status: domain.JobStatusAccepted, AssignedRider: "r2", ActorRider: "r1"},
			reason: "job is accepted, expected requested",
		},
		{
			name:   "accept requested job with rider",
			input:  Input{Action: domain.JobActionAccept, Status: domain.JobStatusRequested, AssignedRider: "r2", ActorRider: "r1"},
			reason: "job already has a rider",
		},
		{
			name:  "pickup own job",
			input: Input{Action: domain.JobActionPickup, Status: domain.JobStatusAccepted, AssignedRider: "r1", ActorRider: "r1"},
			allow: true,
		},
		{
			name:   "pickup someone else's job",
			input:  Input{Action: domain.JobActionPickup, Status: domain.JobStatusAccepted, AssignedRider: "r2", ActorRider: "r1"},
			reason: "job is assigned to another rider",
		},
		{
			name:   "deliver before pickup",
			input:  Input{Action: domain.JobActionDeliver, Status: domain.JobStatusAccepted, AssignedRider: "r1", ActorRider: "r1", HasProof: true},
			reason: "job is accepted, expected picked_up",
		},
		{
			name:   "deliver without proof",
			input:  Input{Action: domain.JobActionDeliver, Status: domain.JobStatusPickedUp, AssignedRider: "r1", ActorRider: "r1"},
			reason: "delivery proof is required",
		},
		{
			name:  "deliver with proof",
			input: Input{Action: domain.JobActionDeliver, Status: domain.JobStatusPickedUp, AssignedRider: "r1", ActorRider: "r1", HasProof: true},
			allow: true,
		},
		{
			name:  "complete delivered job",
			input: Input{Action: domain.JobActionComplete, Status: domain.JobStatusDelivered, AssignedRider: "r1"},
			allow: true,
		},
		{
			name:   "cancelled job is final",
			input:  Input{Action: domain.JobActionComplete, Status: domain.JobStatusCancelled, AssignedRider: "r1"},
			reason: "job is cancelled, expected delivered",
		},
		{
			name:   "unknown action",
			input:  Input{Action: "teleport", Status: domain.JobStatusRequested},
			reason: "unknown action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Evaluate(ctx, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.allow, decision.Allow)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}

func TestNewEngineFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.rego")
	content := `
package job_policy

default decision = {"allow": false, "reason": "closed for the holiday"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	engine, err := NewEngineFromFile(ctx, path)
	require.NoError(t, err)

	decision, err := engine.Evaluate(ctx, Input{Action: domain.JobActionAccept, Status: domain.JobStatusRequested})
	require.NoError(t, err)
	assert.False(t, decision.Allow)
	assert.Equal(t, "closed for the holiday", decision.Reason)
}

func TestNewEngineRejectsInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package job_policy\n\ndecision = {")
	assert.Error(t, err)
}

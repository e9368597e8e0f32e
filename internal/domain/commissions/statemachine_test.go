package commissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectTransitions(t *testing.T) {
	allowed := []struct{ from, to ProjectStatus }{
		{ProjectAwaitingPayment, ProjectInProgress},
		{ProjectInProgress, ProjectPendingProgressReport},
		{ProjectInProgress, ProjectPendingFinalDelivery},
		{ProjectPendingProgressReport, ProjectInProgress},
		{ProjectPendingFinalDelivery, ProjectPendingClientApproval},
		{ProjectPendingFinalDelivery, ProjectCompleted},
		{ProjectPendingClientApproval, ProjectCompleted},
	}
	for _, tc := range allowed {
		assert.True(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}

	rejected := []struct{ from, to ProjectStatus }{
		{ProjectAwaitingPayment, ProjectCompleted},
		{ProjectInProgress, ProjectCompleted},
		{ProjectPendingProgressReport, ProjectPendingFinalDelivery},
		{ProjectCompleted, ProjectInProgress},
		{ProjectCancelled, ProjectInProgress},
	}
	for _, tc := range rejected {
		assert.False(t, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestEveryNonTerminalProjectStateCanCancel(t *testing.T) {
	for from := range projectTransitions {
		assert.True(t, from.CanTransition(ProjectCancelled), from)
	}
	assert.True(t, ProjectCompleted.Terminal())
	assert.True(t, ProjectCancelled.Terminal())
	assert.False(t, ProjectPendingClientApproval.Terminal())
}

func TestUpdateTransitions(t *testing.T) {
	assert.True(t, UpdatePending.CanTransition(UpdateSubmitted))
	assert.True(t, UpdateSubmitted.CanTransition(UpdateApproved))
	assert.True(t, UpdateSubmitted.CanTransition(UpdateRequiresRevision))
	assert.True(t, UpdateRequiresRevision.CanTransition(UpdateSubmitted))

	assert.False(t, UpdatePending.CanTransition(UpdateApproved))
	assert.False(t, UpdateApproved.CanTransition(UpdateSubmitted))
	assert.False(t, UpdateRequiresRevision.CanTransition(UpdateApproved))
}

func TestCommissionTransitions(t *testing.T) {
	assert.True(t, CommissionOpen.CanTransition(CommissionInProgress))
	assert.True(t, CommissionAwaitingProposal.CanTransition(CommissionInProgress))
	assert.True(t, CommissionInProgress.CanTransition(CommissionCompleted))
	assert.False(t, CommissionOpen.CanTransition(CommissionCompleted))
	assert.False(t, CommissionCompleted.CanTransition(CommissionCancelled))

	assert.ElementsMatch(t,
		[]CommissionStatus{CommissionOpen, CommissionAwaitingProposal},
		CommissionSources(CommissionInProgress))
	assert.ElementsMatch(t,
		[]ProjectStatus{ProjectPendingFinalDelivery, ProjectPendingClientApproval},
		ProjectSources(ProjectCompleted))
}

func TestProjectStatusFor(t *testing.T) {
	cases := []struct {
		typ    UpdateType
		status UpdateStatus
		want   ProjectStatus
		ok     bool
	}{
		{UpdateProgressReport, UpdateSubmitted, ProjectPendingProgressReport, true},
		{UpdateProgressReport, UpdateApproved, ProjectInProgress, true},
		{UpdateFinalDelivery, UpdateSubmitted, ProjectPendingFinalDelivery, true},
		{UpdateFinalDelivery, UpdateApproved, ProjectCompleted, true},
		{UpdateFinalDelivery, UpdateRequiresRevision, "", false},
		{UpdateProgressReport, UpdatePending, "", false},
	}
	for _, tc := range cases {
		got, ok := ProjectStatusFor(tc.typ, tc.status)
		assert.Equal(t, tc.ok, ok)
		assert.Equal(t, tc.want, got)
	}
}

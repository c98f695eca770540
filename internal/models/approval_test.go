package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalStatusTransitions(t *testing.T) {
	assert.True(t, ApprovalPending.CanTransitionTo(ApprovalApproved))
	assert.True(t, ApprovalPending.CanTransitionTo(ApprovalRejected))
	assert.False(t, ApprovalPending.CanTransitionTo(ApprovalPending))
	for _, from := range []ApprovalStatus{ApprovalApproved, ApprovalRejected} {
		for _, to := range []ApprovalStatus{ApprovalPending, ApprovalApproved, ApprovalRejected} {
			assert.False(t, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, ApprovalStatus("DONE").Valid())
}

func TestParseDecision(t *testing.T) {
	d, ok := ParseDecision("approve")
	require.True(t, ok)
	assert.Equal(t, ApprovalApproved, d.Status())

	d, ok = ParseDecision("REJECTED")
	require.True(t, ok)
	assert.Equal(t, ApprovalRejected, d.Status())

	d, ok = ParseDecision("PENDING")
	assert.False(t, ok)
	assert.False(t, d.Status().Terminal())
}

func TestSystemIDFor(t *testing.T) {
	at := time.Date(2024, 12, 31, 23, 59, 58, 7000, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "JN-20241231165958000007", SystemIDFor(at))
}

func TestEmployeeIDFor(t *testing.T) {
	joined := time.Date(2023, 7, 4, 0, 0, 0, 0, time.UTC)
	p := Profile{FirstName: "rina", LastName: "Hartono"}

	assert.Equal(t, "R07H23001", EmployeeIDFor(p, joined, nil))
	assert.Equal(t, "R07H23003", EmployeeIDFor(p, joined, []string{"A01B23001", "R07H23002"}))
	assert.Equal(t, "X07X23001", EmployeeIDFor(Profile{}, joined, nil))
}

func TestProfileChangesScan(t *testing.T) {
	var changes ProfileChanges
	require.NoError(t, changes.Scan([]byte(`{"phone":"555-1234","first_name":"Bea"}`)))
	assert.Equal(t, []string{"first_name", "phone"}, changes.Fields())

	require.NoError(t, changes.Scan(nil))
	assert.Empty(t, changes)
	assert.Error(t, changes.Scan(42))

	raw, err := ProfileChanges(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), raw)
}

func TestProfileValue(t *testing.T) {
	p := Profile{FirstName: "Ann", LastName: "Miles", Phone: "555"}
	assert.Equal(t, "555", p.Value("phone"))
	assert.Equal(t, "", p.Value("email"))
	assert.Equal(t, "Ann Miles", p.FullName())
	assert.True(t, IsProfileField("whatsapp_number"))
	assert.False(t, IsProfileField("role"))
}

func TestApprovalEventMapping(t *testing.T) {
	ev := ApprovalEvent{Type: EventApplied, Entity: EntityProfileRequest}
	assert.Equal(t, "profile_request.applied", ev.RoutingKey())
	assert.Equal(t, AuditActionApply, ev.AuditAction())
	assert.Equal(t, ApprovalRejected, AccountRejected.ApprovalStatus())
	assert.Equal(t, AccountPendingApproval, AccountStatusFor(ApprovalPending))
}

func TestRefreshTokenUsable(t *testing.T) {
	now := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	live := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, live.Usable(now))
	assert.False(t, live.Usable(now.Add(2*time.Hour)))

	revoked := &RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}
	assert.False(t, revoked.Usable(now))

	var missing *RefreshToken
	assert.False(t, missing.Usable(now))
}

// Package sync keeps the profile directory consistent with the identity
// records: one profile per identity, created on first authentication, with a
// reconciliation pass for identities the trigger-equivalent missed.
package sync

import (
	"context"
	"log"

	identityrepo "parish-platform/internal/identity/repository"
	"parish-platform/internal/profile/domain"
	profilerepo "parish-platform/internal/profile/repository"
)

// reconcileBatch bounds one reconciliation query; Reconcile loops until the
// store reports no more unmatched identities.
const reconcileBatch = 100

// RepairRecorder counts reconciliation repairs for metrics. May be nil.
type RepairRecorder interface {
	RecordReconcileRepairs(n int)
}

// Syncer creates and repairs profile rows. It is the only writer of profile
// rows besides the admin role/status mutation.
type Syncer struct {
	identities identityrepo.Repository
	profiles   profilerepo.Repository
	metrics    RepairRecorder
}

// NewSyncer returns a Syncer over the given repositories. metrics may be nil.
func NewSyncer(identities identityrepo.Repository, profiles profilerepo.Repository, metrics RepairRecorder) *Syncer {
	return &Syncer{identities: identities, profiles: profiles, metrics: metrics}
}

// SyncIdentity upserts the profile for a newly authenticated identity:
// inserted with role=member and is_active=true, or refreshed (display name
// and email only) when a row already exists. Idempotent; safe under
// concurrent first-logins for the same identity.
func (s *Syncer) SyncIdentity(ctx context.Context, identityID, email, displayName string) error {
	return s.profiles.UpsertSync(ctx, &domain.Profile{
		IdentityID:  identityID,
		DisplayName: displayName,
		Email:       email,
		Role:        domain.RoleMember,
		IsActive:    true,
	})
}

// Reconcile finds identities with no matching profile and inserts defaults
// for each. A missing profile is an expected, recoverable condition, not an
// exceptional one. Returns the number of profiles repaired. Per-identity
// failures are logged and skipped so one bad row cannot stall the pass.
func (s *Syncer) Reconcile(ctx context.Context) (int, error) {
	repaired := 0
	for {
		missing, err := s.identities.ListWithoutProfile(ctx, reconcileBatch)
		if err != nil {
			return repaired, err
		}
		if len(missing) == 0 {
			break
		}
		progressed := 0
		for _, ident := range missing {
			if err := s.SyncIdentity(ctx, ident.ID, ident.Email, ident.DisplayName); err != nil {
				log.Printf("sync: reconcile of identity %s failed: %v", ident.ID, err)
				continue
			}
			repaired++
			progressed++
		}
		if progressed == 0 {
			// Every row in the batch failed; bail instead of spinning.
			break
		}
		if len(missing) < reconcileBatch {
			break
		}
	}
	if s.metrics != nil && repaired > 0 {
		s.metrics.RecordReconcileRepairs(repaired)
	}
	return repaired, nil
}

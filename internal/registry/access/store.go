package access

import (
	"context"

	id "certledger/pkg/domain"
)

// Store owns role state: the fixed administrator identity and the dynamic
// issuer set. It is mutated only by the lifecycle service; authorization is
// checked against it at transition time, never cached, because issuer-set
// membership can change between a certificate's issuance and a later
// update or revoke attempt.
type Store interface {
	// Admin returns the administrator identity. The role is a fixed
	// singleton; transfer is out of scope.
	Admin(ctx context.Context) (id.Identity, error)

	IsAdmin(ctx context.Context, identity id.Identity) (bool, error)
	IsIssuer(ctx context.Context, identity id.Identity) (bool, error)

	// Grant adds identity to the issuer set. Adding a present issuer is a
	// no-op; the set has no memory of prior membership beyond the audit
	// trail, so a removed issuer can be re-added without special handling.
	Grant(ctx context.Context, identity id.Identity) error

	// Revoke removes identity from the issuer set. Removing an absent
	// issuer is a no-op.
	Revoke(ctx context.Context, identity id.Identity) error

	// Issuers lists current members in no particular order.
	Issuers(ctx context.Context) ([]id.Identity, error)
}

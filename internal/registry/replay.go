package registry

import (
	"context"
	"fmt"

	"certledger/internal/audit"
	"certledger/internal/registry/access"
	"certledger/internal/registry/store"
	id "certledger/pkg/domain"
)

// Replay applies a committed audit trail, in order, against fresh stores.
// Because every transition's effects are fully captured in its entry, replay
// reconstructs the exact record and role state the live registry reached.
// A cold-started memory deployment recovers through the same path.
//
// Entries must be in commit order. Replay fails loudly on a trail that could
// not have been produced by the lifecycle service (e.g. an issuance whose id
// does not match the store's allocation), since that indicates tampering or
// corruption.
func Replay(ctx context.Context, entries []audit.Entry, accessStore access.Store, records store.RecordStore) error {
	for _, entry := range entries {
		if err := replayOne(ctx, entry, accessStore, records); err != nil {
			return fmt.Errorf("replay entry %d (%s): %w", entry.Seq, entry.Kind, err)
		}
	}
	return nil
}

func replayOne(ctx context.Context, entry audit.Entry, accessStore access.Store, records store.RecordStore) error {
	switch entry.Kind {
	case audit.KindCertificateIssued:
		digest, err := id.ParseDigest(entry.Digest)
		if err != nil {
			return err
		}
		certID, err := records.Allocate(ctx, entry.Issuer, entry.Recipient, entry.ContentRef, digest, entry.Metadata)
		if err != nil {
			return err
		}
		if certID != entry.CertID {
			return fmt.Errorf("allocated id %d, trail says %d", certID, entry.CertID)
		}
		return nil

	case audit.KindCertificateUpdated:
		digest, err := id.ParseDigest(entry.Digest)
		if err != nil {
			return err
		}
		return records.SetContent(ctx, entry.CertID, entry.ContentRef, digest)

	case audit.KindCertificateRevoked:
		return records.MarkRevoked(ctx, entry.CertID, entry.Seq)

	case audit.KindIssuerAdded:
		return accessStore.Grant(ctx, entry.Identity)

	case audit.KindIssuerRemoved:
		return accessStore.Revoke(ctx, entry.Identity)

	default:
		return fmt.Errorf("unknown transition kind %q", entry.Kind)
	}
}

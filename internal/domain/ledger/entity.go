package ledger

import "time"

// EntryKind defines supported ledger entry kinds.
type EntryKind string

const (
	KindReleaseAward EntryKind = "release_award"
	KindSellerBonus  EntryKind = "seller_bonus"
	KindPurchase     EntryKind = "purchase"
	KindAdminGrant   EntryKind = "admin_grant"
	KindSpend        EntryKind = "spend"
)

// SourceType tags the record a ledger entry originates from. The set is
// closed: entries with any other tag are rejected at insert time.
type SourceType string

const (
	SourceDealRelease          SourceType = "deal_release"
	SourceEnrichmentValidation SourceType = "enrichment_validation"
	SourceListingPush          SourceType = "listing_push"
	SourcePartnerContact       SourceType = "partner_contact"
	SourceAdminAdjustment      SourceType = "admin_adjustment"
	SourcePurchase             SourceType = "purchase"
)

// Source is a typed reference to the record that caused a balance mutation.
// AdminAdjustment carries no reference.
type Source struct {
	Type SourceType
	Ref  *string
}

func refSource(t SourceType, ref string) Source {
	return Source{Type: t, Ref: &ref}
}

func DealReleaseSource(dealID string) Source {
	return refSource(SourceDealRelease, dealID)
}

func EnrichmentValidationSource(enrichmentID string) Source {
	return refSource(SourceEnrichmentValidation, enrichmentID)
}

func ListingPushSource(pushID string) Source {
	return refSource(SourceListingPush, pushID)
}

func PartnerContactSource(contactID string) Source {
	return refSource(SourcePartnerContact, contactID)
}

func AdminAdjustmentSource() Source {
	return Source{Type: SourceAdminAdjustment}
}

func PurchaseSource(packID string) Source {
	return refSource(SourcePurchase, packID)
}

// Valid reports whether the source type belongs to the closed set.
func (s Source) Valid() bool {
	switch s.Type {
	case SourceDealRelease, SourceEnrichmentValidation, SourceListingPush,
		SourcePartnerContact, SourceAdminAdjustment, SourcePurchase:
		return true
	}
	return false
}

// Entry is one immutable ledger row. BalanceAfter records the account
// balance at the moment the entry was committed.
type Entry struct {
	ID           string    `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	AmountDelta  int       `db:"amount_delta" json:"amount_delta"`
	EntryKind    string    `db:"entry_kind" json:"entry_kind"`
	SourceType   string    `db:"source_type" json:"source_type"`
	SourceRef    *string   `db:"source_ref" json:"source_ref,omitempty"`
	Description  string    `db:"description" json:"description"`
	BalanceAfter int       `db:"balance_after" json:"balance_after"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}

// SearchFilters provides admin-facing entry filtering.
type SearchFilters struct {
	AccountID  *string
	EntryKind  *string
	SourceType *string
	SourceRef  *string
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

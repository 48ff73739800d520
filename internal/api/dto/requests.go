package dto

// AutoMatchRequest starts a reconciliation run for one owner.
type AutoMatchRequest struct {
	OwnerID    string `json:"owner_id" binding:"required"`
	DryRun     bool   `json:"dry_run"`
	MaxCharges int    `json:"max_charges"`
}

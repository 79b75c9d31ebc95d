package models

import "gorm.io/gorm"

// onePendingClaimIndex makes the per-user pending gate atomic: a second pending
// insert for the same user fails on the index instead of racing a lookup.
const onePendingClaimIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_claim_requests_one_pending
	ON claim_requests (user_id) WHERE status = 'pending'`

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&RewardTransaction{},
		&ClaimRequest{},
	); err != nil {
		return err
	}
	return db.Exec(onePendingClaimIndex).Error
}

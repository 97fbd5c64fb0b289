package sales

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// deleteOwnedExcept removes rows of model that belong to the contract and whose
// id is not in keep. An empty keep removes every row of the contract.
func deleteOwnedExcept(txx *gorm.DB, model any, contractID uuid.UUID, keep []uuid.UUID) (int64, error) {
	q := txx.Where("contract_id = ?", contractID)
	if len(keep) > 0 {
		q = q.Where("id NOT IN ?", keep)
	}
	res := q.Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

package repo

import "gorm.io/gorm"

// insertBatchSize keeps a single INSERT well under the bind-variable limits
// of both postgres and sqlite.
const insertBatchSize = 200

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

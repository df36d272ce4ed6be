package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Item is a modern-universe inventory item. CMSDrugID and RegNo are soft
// references into the legacy CMS store; the reconciliation passes keep them
// consistent.
type Item struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string         `gorm:"column:name;not null"`
	Unit       string         `gorm:"column:unit"`
	Categories pq.StringArray `gorm:"column:categories;type:text[]"`
	RegNo      *string        `gorm:"column:reg_no"`
	CMSDrugID  *int64         `gorm:"column:cms_drug_id"`
	Notes      *string        `gorm:"column:notes"`
	Active     bool           `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

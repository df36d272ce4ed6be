package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/regno"
)

// CreateItemInput captures the fields accepted on item creation.
type CreateItemInput struct {
	Name       string   `json:"name" validate:"required"`
	Unit       string   `json:"unit"`
	Categories []string `json:"categories"`
	RegNo      *string  `json:"reg_no"`
}

// UpdateItemInput captures the mutable item fields; nil means unchanged.
type UpdateItemInput struct {
	Name       *string   `json:"name"`
	Unit       *string   `json:"unit"`
	Categories *[]string `json:"categories"`
	RegNo      *string   `json:"reg_no"`
	Active     *bool     `json:"active"`
}

// ItemDTO is the outward item representation.
type ItemDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Unit       string    `json:"unit,omitempty"`
	Categories []string  `json:"categories,omitempty"`
	RegNo      *string   `json:"reg_no,omitempty"`
	CMSDrugID  *int64    `json:"cms_drug_id,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toDTO(item models.Item) ItemDTO {
	return ItemDTO{
		ID:         item.ID,
		Name:       item.Name,
		Unit:       item.Unit,
		Categories: item.Categories,
		RegNo:      item.RegNo,
		CMSDrugID:  item.CMSDrugID,
		Notes:      item.Notes,
		Active:     item.Active,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

func (in CreateItemInput) toModel() *models.Item {
	item := &models.Item{
		Name:       in.Name,
		Unit:       in.Unit,
		Categories: in.Categories,
		Active:     true,
	}
	if in.RegNo != nil && !regno.Empty(*in.RegNo) {
		normalized := regno.Normalize(*in.RegNo)
		item.RegNo = &normalized
	}
	return item
}

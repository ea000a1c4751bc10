package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category represents a catalog category. Categories form a tree of
// arbitrary depth via ParentID.
type Category struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ParentID  *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CategoryNode is a category with its children, used for tree responses.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children,omitempty"`
}

// CreateCategoryRequest is the admin payload for creating a category.
type CreateCategoryRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Name     string     `json:"name" binding:"required,min=2,max=255"`
	Slug     string     `json:"slug" binding:"required,min=2,max=255"`
}

// UpdateCategoryRequest is the admin payload for updating a category.
// A nil ParentID leaves the parent unchanged; use ClearParent to move a
// category to the root.
type UpdateCategoryRequest struct {
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
	Name        *string    `json:"name" binding:"omitempty,min=2,max=255"`
	Active      *bool      `json:"active"`
}

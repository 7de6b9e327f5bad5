package models

import "time"

type Car struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Make        string    `json:"make" gorm:"not null;index"`
	Model       string    `json:"model" gorm:"not null"`
	Year        int       `json:"year" gorm:"not null"`
	Price       float64   `json:"price" gorm:"not null"`
	Description string    `json:"description"`
	Image       string    `json:"-" gorm:"type:text"` // base64, served by /api/cars/:id/image
	ImageType   string    `json:"imageType,omitempty"`
	OwnerID     uint      `json:"userId" gorm:"not null;index"`
	Owner       *User     `json:"-" gorm:"foreignKey:OwnerID"`
	Color       string    `json:"color"`
	IsEV        bool      `json:"isEV" gorm:"not null;default:false"`
	Range       *int      `json:"range" gorm:"column:range_km"` // EV only
	IsSold      bool      `json:"isSold" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Not persisted.
	HasImage     bool     `json:"hasImage" gorm:"-"`
	SellerName   string   `json:"sellerName,omitempty" gorm:"-"`
	EVIncentives []string `json:"evIncentives,omitempty" gorm:"-"`
}

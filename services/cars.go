package services

import (
	"context"
	"encoding/base64"
	"math"
	"strings"
	"time"

	"vehicle-vault-api/models"

	"gorm.io/gorm"
)

const firstCarYear = 1886

// Listing queries never load the image blob.
var carListColumns = []string{
	"id", "make", "model", "year", "price", "description", "image_type", "owner_id",
	"color", "is_ev", "range_km", "is_sold", "created_at", "updated_at",
}

type CarService struct {
	db         *gorm.DB
	incentives *IncentivePicker
}

func NewCarService(db *gorm.DB, incentives *IncentivePicker) *CarService {
	if incentives == nil {
		incentives = NewIncentivePicker(nil)
	}
	return &CarService{db: db, incentives: incentives}
}

// CarInput carries the writable fields of a listing.
type CarInput struct {
	Make        string
	Model       string
	Year        int
	Price       float64
	Description string
	Color       string
	IsEV        bool
	Range       *int
	Image       string // base64 or data URL, create only
	ImageType   string
}

func (in *CarInput) normalize() error {
	in.Make = strings.TrimSpace(in.Make)
	in.Model = strings.TrimSpace(in.Model)
	in.Color = strings.TrimSpace(in.Color)
	if in.Make == "" || in.Model == "" {
		return validationError("make and model are required")
	}
	maxYear := time.Now().Year() + 1
	if in.Year < firstCarYear || in.Year > maxYear {
		return validationError("year must be between %d and %d", firstCarYear, maxYear)
	}
	if in.Price <= 0 || math.IsInf(in.Price, 0) || math.IsNaN(in.Price) {
		return validationError("price must be a positive number")
	}
	if !in.IsEV {
		in.Range = nil
	} else if in.Range != nil && *in.Range < 0 {
		return validationError("range must not be negative")
	}
	return nil
}

// CarFilter narrows ListCars. Zero values mean "no constraint".
type CarFilter struct {
	Search      string
	Make        string
	Model       string
	Color       string
	MinPrice    *float64
	MaxPrice    *float64
	MinYear     *int
	MaxYear     *int
	IsEV        *bool
	MinRange    *int
	MaxRange    *int
	ExcludeSold bool
	OwnerID     *uint
}

func (f CarFilter) apply(q *gorm.DB) *gorm.DB {
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("(make LIKE ? OR model LIKE ? OR description LIKE ?)", like, like, like)
	}
	if f.Make != "" {
		q = q.Where("LOWER(make) = LOWER(?)", f.Make)
	}
	if f.Model != "" {
		q = q.Where("model LIKE ?", "%"+f.Model+"%")
	}
	if f.Color != "" {
		q = q.Where("LOWER(color) = LOWER(?)", f.Color)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinYear != nil {
		q = q.Where("year >= ?", *f.MinYear)
	}
	if f.MaxYear != nil {
		q = q.Where("year <= ?", *f.MaxYear)
	}
	if f.IsEV != nil {
		q = q.Where("is_ev = ?", *f.IsEV)
	}
	if f.MinRange != nil {
		q = q.Where("range_km >= ?", *f.MinRange)
	}
	if f.MaxRange != nil {
		q = q.Where("range_km <= ?", *f.MaxRange)
	}
	if f.ExcludeSold {
		q = q.Where("is_sold = ?", false)
	}
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	return q
}

// decorate fills the non-persisted fields of a car for output.
func (s *CarService) decorate(car *models.Car) {
	car.HasImage = car.ImageType != ""
	if car.Owner != nil {
		car.SellerName = car.Owner.Name
	}
	if car.IsEV {
		car.EVIncentives = s.incentives.Pick()
	}
}

// Create stores a new listing owned by ownerID.
func (s *CarService) Create(ctx context.Context, ownerID uint, in CarInput) (*models.Car, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	car := models.Car{
		Make:        in.Make,
		Model:       in.Model,
		Year:        in.Year,
		Price:       in.Price,
		Description: in.Description,
		Color:       in.Color,
		IsEV:        in.IsEV,
		Range:       in.Range,
		OwnerID:     ownerID,
	}
	if in.Image != "" {
		encoded, mimeType, err := decodeImage(in.Image, in.ImageType)
		if err != nil {
			return nil, err
		}
		car.Image, car.ImageType = encoded, mimeType
	}

	db := s.db.WithContext(ctx)
	var owners int64
	if err := db.Model(&models.User{}).Where("id = ?", ownerID).Count(&owners).Error; err != nil {
		return nil, err
	}
	if owners == 0 {
		return nil, ErrUserNotFound
	}
	if err := db.Create(&car).Error; err != nil {
		return nil, err
	}
	car.Image = ""
	car.HasImage = car.ImageType != ""
	return &car, nil
}

// List returns cars newest first. EV rows carry freshly drawn incentives.
func (s *CarService) List(ctx context.Context, f CarFilter) ([]models.Car, error) {
	cars := []models.Car{}
	q := f.apply(s.db.WithContext(ctx).Model(&models.Car{}).Select(carListColumns))
	if err := q.Preload("Owner").Order("created_at desc, id desc").Find(&cars).Error; err != nil {
		return nil, err
	}
	for i := range cars {
		s.decorate(&cars[i])
	}
	return cars, nil
}

func (s *CarService) ListByOwner(ctx context.Context, ownerID uint) ([]models.Car, error) {
	return s.List(ctx, CarFilter{OwnerID: &ownerID})
}

// Get returns one car with its seller name.
func (s *CarService) Get(ctx context.Context, id uint) (*models.Car, error) {
	var car models.Car
	err := s.db.WithContext(ctx).Select(carListColumns).Preload("Owner").First(&car, id).Error
	if err != nil {
		return nil, notFound(err, ErrCarNotFound)
	}
	s.decorate(&car)
	return &car, nil
}

// Image returns the decoded image bytes and MIME type. width > 0 asks
// for a thumbnail no wider than width.
func (s *CarService) Image(ctx context.Context, id uint, width int) ([]byte, string, error) {
	var car models.Car
	err := s.db.WithContext(ctx).Select("id", "image", "image_type").First(&car, id).Error
	if err != nil {
		return nil, "", notFound(err, ErrCarNotFound)
	}
	if car.Image == "" {
		return nil, "", ErrImageNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(car.Image)
	if err != nil {
		return nil, "", err
	}
	return thumbnail(raw, car.ImageType, width)
}

// Update overwrites every editable field. Owner or admin only.
func (s *CarService) Update(ctx context.Context, actor Actor, id uint, in CarInput) (*models.Car, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var car models.Car
	if err := db.Select("id", "owner_id").First(&car, id).Error; err != nil {
		return nil, notFound(err, ErrCarNotFound)
	}
	if !actor.CanManage(car.OwnerID) {
		return nil, ErrForbidden
	}

	err := db.Model(&car).Updates(map[string]any{
		"make":        in.Make,
		"model":       in.Model,
		"year":        in.Year,
		"price":       in.Price,
		"color":       in.Color,
		"description": in.Description,
		"is_ev":       in.IsEV,
		"range_km":    in.Range,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a listing. Owner or admin only.
func (s *CarService) Delete(ctx context.Context, actor Actor, id uint) error {
	db := s.db.WithContext(ctx)
	var car models.Car
	if err := db.Select("id", "owner_id").First(&car, id).Error; err != nil {
		return notFound(err, ErrCarNotFound)
	}
	if !actor.CanManage(car.OwnerID) {
		return ErrForbidden
	}
	res := db.Delete(&models.Car{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCarNotFound
	}
	return nil
}

// MarkSold flips the sold flag and moves the owner's carsSold counter in the
// same transaction. Either write touching zero rows rolls both back.
func (s *CarService) MarkSold(ctx context.Context, id, ownerID uint, isSold bool) error {
	counter := gorm.Expr("cars_sold + 1")
	if !isSold {
		counter = gorm.Expr("CASE WHEN cars_sold > 0 THEN cars_sold - 1 ELSE 0 END")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Car{}).
			Where("id = ? AND owner_id = ? AND is_sold = ?", id, ownerID, !isSold).
			Update("is_sold", isSold)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSoldConflict
		}

		res = tx.Model(&models.User{}).Where("id = ?", ownerID).Update("cars_sold", counter)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSoldConflict
		}
		return nil
	})
}

// Inventory lists the unsold cars for the assistant, newest first, without
// images or seller details.
func (s *CarService) Inventory(ctx context.Context) ([]models.Car, error) {
	cars := []models.Car{}
	err := s.db.WithContext(ctx).
		Select("id", "make", "model", "year", "price", "is_ev", "range_km", "created_at").
		Where("is_sold = ?", false).
		Order("created_at desc, id desc").
		Find(&cars).Error
	return cars, err
}

// CountSoldByOwner counts the owner's cars currently marked sold.
func (s *CarService) CountSoldByOwner(ctx context.Context, ownerID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Car{}).
		Where("owner_id = ? AND is_sold = ?", ownerID, true).
		Count(&count).Error
	return count, err
}

// FinanceInput describes a loan against a listing's price.
type FinanceInput struct {
	DownPayment float64
	TermMonths  int
	APR         float64 // percent per year, 0 for an interest-free split
}

type FinanceQuote struct {
	CarID          uint    `json:"carId"`
	Price          float64 `json:"price"`
	DownPayment    float64 `json:"downPayment"`
	Principal      float64 `json:"principal"`
	TermMonths     int     `json:"termMonths"`
	APR            float64 `json:"apr"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	TotalCost      float64 `json:"totalCost"`
}

// Financing computes a fixed monthly payment for the car's price.
func (s *CarService) Financing(ctx context.Context, id uint, in FinanceInput) (*FinanceQuote, error) {
	var car models.Car
	if err := s.db.WithContext(ctx).Select("id", "price").First(&car, id).Error; err != nil {
		return nil, notFound(err, ErrCarNotFound)
	}
	return Quote(car.ID, car.Price, in)
}

// Quote is the pure payment calculation behind Financing.
func Quote(carID uint, price float64, in FinanceInput) (*FinanceQuote, error) {
	if in.TermMonths < 1 || in.TermMonths > 120 {
		return nil, validationError("termMonths must be between 1 and 120")
	}
	if in.DownPayment < 0 || in.DownPayment > price {
		return nil, validationError("downPayment must be between 0 and the car price")
	}
	if in.APR < 0 || in.APR > 100 {
		return nil, validationError("apr must be between 0 and 100")
	}

	principal := price - in.DownPayment
	n := float64(in.TermMonths)
	monthly := principal / n
	if in.APR > 0 {
		r := in.APR / 100 / 12
		monthly = principal * r / (1 - math.Pow(1+r, -n))
	}

	return &FinanceQuote{
		CarID:          carID,
		Price:          price,
		DownPayment:    in.DownPayment,
		Principal:      roundCents(principal),
		TermMonths:     in.TermMonths,
		APR:            in.APR,
		MonthlyPayment: roundCents(monthly),
		TotalCost:      roundCents(monthly*n + in.DownPayment),
	}, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

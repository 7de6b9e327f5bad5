package handlers

import (
	"net/http"
	"strconv"

	"vehicle-vault-api/middleware"
	"vehicle-vault-api/services"

	"github.com/gin-gonic/gin"
)

type CarRequest struct {
	Make        string   `json:"make" binding:"required"`
	Model       string   `json:"model" binding:"required"`
	Year        integer  `json:"year" binding:"required"`
	Price       numeric  `json:"price" binding:"required,gt=0"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	IsEV        bool     `json:"isEV"`
	Range       *integer `json:"range"`
	Image       string   `json:"image"`
	ImageType   string   `json:"imageType"`
	UserID      *uint    `json:"userId"`
}

func (r CarRequest) input() services.CarInput {
	in := services.CarInput{
		Make:        r.Make,
		Model:       r.Model,
		Year:        int(r.Year),
		Price:       float64(r.Price),
		Description: r.Description,
		Color:       r.Color,
		IsEV:        r.IsEV,
		Image:       r.Image,
		ImageType:   r.ImageType,
	}
	if r.Range != nil {
		v := int(*r.Range)
		in.Range = &v
	}
	return in
}

// CreateCar lists a car for sale under the caller's account
func (h *Handler) CreateCar(c *gin.Context) {
	var req CarRequest
	if !bind(c, &req) || !requireSelf(c, req.UserID) {
		return
	}

	car, err := h.Cars.Create(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		respondError(c, "create car", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Car added successfully",
		"carId":   car.ID,
		"car":     car,
	})
}

// ListCars returns listings newest first. Query params narrow the search.
func (h *Handler) ListCars(c *gin.Context) {
	f := services.CarFilter{
		Search: c.Query("search"),
		Make:   c.Query("make"),
		Model:  c.Query("model"),
		Color:  c.Query("color"),
	}
	var ok bool
	if f.MinPrice, ok = queryFloat(c, "minPrice"); !ok {
		return
	}
	if f.MaxPrice, ok = queryFloat(c, "maxPrice"); !ok {
		return
	}
	if f.MinYear, ok = queryInt(c, "minYear"); !ok {
		return
	}
	if f.MaxYear, ok = queryInt(c, "maxYear"); !ok {
		return
	}
	if f.MinRange, ok = queryInt(c, "minRange"); !ok {
		return
	}
	if f.MaxRange, ok = queryInt(c, "maxRange"); !ok {
		return
	}
	if f.IsEV, ok = queryBool(c, "isEV"); !ok {
		return
	}
	includeSold, ok := queryBool(c, "includeSold")
	if !ok {
		return
	}
	f.ExcludeSold = includeSold != nil && !*includeSold

	cars, err := h.Cars.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, "list cars", err)
		return
	}
	c.JSON(http.StatusOK, cars)
}

// ListUserCars returns one seller's listings
func (h *Handler) ListUserCars(c *gin.Context) {
	id, ok := parseID(c, "userId")
	if !ok {
		return
	}
	cars, err := h.Cars.ListByOwner(c.Request.Context(), id)
	if err != nil {
		respondError(c, "list user cars", err)
		return
	}
	c.JSON(http.StatusOK, cars)
}

func (h *Handler) GetCar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	car, err := h.Cars.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "get car", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

// GetCarImage streams the listing photo; ?width=N returns a thumbnail
func (h *Handler) GetCarImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	width := 0
	if raw := c.Query("width"); raw != "" {
		w, err := strconv.Atoi(raw)
		if err != nil || w < 1 {
			middleware.Fail(c, http.StatusBadRequest, middleware.CodeValidation, "width must be a positive integer")
			return
		}
		width = w
	}

	data, mimeType, err := h.Cars.Image(c.Request.Context(), id, width)
	if err != nil {
		respondError(c, "get car image", err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, mimeType, data)
}

// UpdateCar overwrites every editable field. Owner or admin only.
func (h *Handler) UpdateCar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CarRequest
	if !bind(c, &req) {
		return
	}

	car, err := h.Cars.Update(c.Request.Context(), actor(c), id, req.input())
	if err != nil {
		respondError(c, "update car", err)
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h *Handler) DeleteCar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.Cars.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, "delete car", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Car deleted successfully"})
}

type MarkSoldRequest struct {
	UserID *uint `json:"userId"`
	IsSold *bool `json:"isSold" binding:"required"`
}

// MarkSold flips the sold flag on the caller's own listing
func (h *Handler) MarkSold(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req MarkSoldRequest
	if !bind(c, &req) || !requireSelf(c, req.UserID) {
		return
	}

	if err := h.Cars.MarkSold(c.Request.Context(), id, middleware.GetUserID(c), *req.IsSold); err != nil {
		respondError(c, "mark sold", err)
		return
	}
	msg := "Car marked as sold successfully"
	if !*req.IsSold {
		msg = "Car marked as available"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "isSold": *req.IsSold})
}

// CarFinancing quotes a monthly payment for the listing
func (h *Handler) CarFinancing(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	in := services.FinanceInput{TermMonths: 60}
	down, ok := queryFloat(c, "downPayment")
	if !ok {
		return
	}
	term, ok := queryInt(c, "termMonths")
	if !ok {
		return
	}
	apr, ok := queryFloat(c, "apr")
	if !ok {
		return
	}
	if down != nil {
		in.DownPayment = *down
	}
	if term != nil {
		in.TermMonths = *term
	}
	if apr != nil {
		in.APR = *apr
	}

	quote, err := h.Cars.Financing(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, "financing", err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"sync"
	"testing"

	"vehicle-vault-api/config"
	"vehicle-vault-api/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newUsers(db *gorm.DB) *UserService {
	return NewUserService(db, "").WithHashCost(bcrypt.MinCost)
}

func newCars(db *gorm.DB) *CarService {
	return NewCarService(db, NewIncentivePicker(rand.NewPCG(1, 2)))
}

func mustRegister(t *testing.T, users *UserService, name, email string) *models.User {
	t.Helper()
	u, err := users.Register(context.Background(), name, email, "secret123")
	require.NoError(t, err)
	return u
}

func mustCreateCar(t *testing.T, cars *CarService, ownerID uint, in CarInput) *models.Car {
	t.Helper()
	car, err := cars.Create(context.Background(), ownerID, in)
	require.NoError(t, err)
	return car
}

func sedan() CarInput {
	return CarInput{Make: "Honda", Model: "Civic", Year: 2019, Price: 15000, Color: "Blue", Description: "One owner"}
}

func ev() CarInput {
	r := 400
	return CarInput{Make: "Tesla", Model: "Model 3", Year: 2022, Price: 38000, Color: "White", IsEV: true, Range: &r}
}

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// recordingNotifier captures pushed notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	sent map[uint][]models.Notification
}

func (r *recordingNotifier) Notify(userID uint, n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent == nil {
		r.sent = map[uint][]models.Notification{}
	}
	r.sent[userID] = append(r.sent[userID], n)
}

func (r *recordingNotifier) For(userID uint) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[userID]
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNumeric_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{`2019`, 2019, false},
		{`"2019"`, 2019, false},
		{`" 15000.50 "`, 15000.5, false},
		{`""`, 0, false},
		{`null`, 0, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n numeric
			err := json.Unmarshal([]byte(tt.in), &n)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, float64(n))
		})
	}
}

func TestInteger_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr string
	}{
		{in: `2019`, want: 2019},
		{in: `"2019"`, want: 2019},
		{in: `2019.0`, want: 2019},
		{in: `null`, want: 0},
		{in: `2019.7`, wantErr: "2019.7 is not a whole number"},
		{in: `"350.25"`, wantErr: `"350.25" is not a whole number`},
		{in: `1e12`, wantErr: "1e12 is not a whole number"},
		{in: `"abc"`, wantErr: `"abc" is not a number`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n integer
			err := json.Unmarshal([]byte(tt.in), &n)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, int(n))
		})
	}
}

func TestBindErrors(t *testing.T) {
	RegisterValidation()
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req struct {
			Make  string   `json:"make" binding:"required"`
			Year  integer  `json:"year" binding:"required"`
			Range *integer `json:"range"`
			IsEV  bool     `json:"isEV"`
			Email string   `json:"email" binding:"omitempty,email"`
		}
		if !bind(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"ok", `{"make":"Ford","year":"1999"}`, http.StatusNoContent, ""},
		{"missing fields", `{}`, http.StatusBadRequest, "make is required; year is required"},
		{"bad email", `{"make":"Ford","year":1999,"email":"x"}`, http.StatusBadRequest, "email must be a valid email"},
		{"wrong type", `{"make":"Ford","year":1999,"isEV":"yes"}`, http.StatusBadRequest, "isEV must be a bool"},
		{"not a number", `{"make":"Ford","year":"old"}`, http.StatusBadRequest, `"old" is not a number`},
		{"fractional year", `{"make":"Ford","year":2019.7}`, http.StatusBadRequest, "2019.7 is not a whole number"},
		{"fractional range", `{"make":"Ford","year":1999,"range":250.5}`, http.StatusBadRequest, "250.5 is not a whole number"},
		{"syntax", `{"make":`, http.StatusBadRequest, "Malformed JSON body"},
		{"empty", ``, http.StatusBadRequest, "Malformed JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))
			assert.Equal(t, tt.status, w.Code)
			if tt.msg != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.msg, body["error"])
				assert.Equal(t, "validation_error", body["code"])
			}
		})
	}
}

package transport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FlexInt accepts 21, "21", "" and "21.0"; spreadsheets and form posts send
// all of them for the same column.
type FlexInt struct {
	Value *int
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		f.Value = nil
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	v, err := ParseInt(s)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(*f.Value)), nil
}

func ParseInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return nil, fmt.Errorf("%q is not a whole number", s)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil, fmt.Errorf("%q is out of range", s)
	}
	n := int(f)
	return &n, nil
}

type SignupRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	MobileNo   string `json:"mobileNo"`
	RollNumber string `json:"rollNumber"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type AccountRequest struct {
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	Role       string  `json:"role"`
	Name       string  `json:"name"`
	MobileNo   string  `json:"mobileNo"`
	Age        FlexInt `json:"age"`
	Gender     string  `json:"gender"`
	Aadhar     string  `json:"aadhar"`
	Course     string  `json:"course"`
	College    string  `json:"college"`
	Depo       string  `json:"depo"`
	RollNumber string  `json:"rollNumber"`
}

// PatchAccountRequest leaves nil fields untouched; an empty string clears
// an optional field.
type PatchAccountRequest struct {
	Email      *string  `json:"email"`
	Password   *string  `json:"password"`
	Name       *string  `json:"name"`
	MobileNo   *string  `json:"mobileNo"`
	Age        *FlexInt `json:"age"`
	Gender     *string  `json:"gender"`
	Aadhar     *string  `json:"aadhar"`
	Course     *string  `json:"course"`
	College    *string  `json:"college"`
	Depo       *string  `json:"depo"`
	RollNumber *string  `json:"rollNumber"`
}

type UpdatePasswordRequest struct {
	Email      string `json:"email"`
	RollNumber string `json:"rollNumber"`
}

type UserView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	Message   string    `json:"message"`
	User      UserView  `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type IngestResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
	Skipped int    `json:"skipped"`
}

type PreviewResponse struct {
	Rows           []AccountRequest `json:"rows"`
	IgnoredColumns []string         `json:"ignoredColumns"`
}

type GenerateQRRequest struct {
	UserID string `json:"userId"`
}

type PassResponse struct {
	Token      string `json:"token"`
	QRImageURL string `json:"qrImageUrl"`
	ExpiresAt  int64  `json:"expiresAt"`
}

type PassView struct {
	UserID        string `json:"userId"`
	ExpiresAt     int64  `json:"expiresAt"`
	RemainingDays int    `json:"remainingDays"`
	Active        bool   `json:"active"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

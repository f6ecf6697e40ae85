package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

// JSONB is a free-form jsonb column. Payment.Meta uses it as its audit trail.
type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}

func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*a = JSONB{}
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// String returns the value at key when it is a string, or "".
func (a JSONB) String(key string) string {
	if a == nil {
		return ""
	}
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Merge copies every entry of other into a, overwriting existing keys.
func (a JSONB) Merge(other JSONB) JSONB {
	out := JSONB{}
	for k, v := range a {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

type Role string

const (
	ROLE_TRAVELLER  Role = "traveller"
	ROLE_GUIDE      Role = "guide"
	ROLE_INSTRUCTOR Role = "instructor"
	ROLE_ADVISOR    Role = "advisor"
	ROLE_ADMIN      Role = "admin"
)

// PaymentStatus is the payment axis of a Booking. It is independent of BookingStatus.
type PaymentStatus string

const (
	PAYMENT_PENDING  PaymentStatus = "pending"
	PAYMENT_PAID     PaymentStatus = "paid"
	PAYMENT_REFUNDED PaymentStatus = "refunded"
	PAYMENT_FAILED   PaymentStatus = "failed"
)

// TransactionStatus is the status of a single gateway order attempt (models.Payment).
type TransactionStatus string

const (
	TRANSACTION_CREATED  TransactionStatus = "created"
	TRANSACTION_PAID     TransactionStatus = "paid"
	TRANSACTION_FAILED   TransactionStatus = "failed"
	TRANSACTION_REFUNDED TransactionStatus = "refunded"
)

const PROVIDER_RAZORPAY = "razorpay"

// Keys of models.Payment.Meta
const (
	META_BOOKING_ID         = "bookingId"
	META_RECEIPT            = "receipt"
	META_ORDER_ID           = "razorpayOrderId"
	META_PAYMENT_ID         = "paymentId"
	META_SIGNATURE          = "signature"
	META_PAID_AT            = "paidAt"
	META_FAILURE_REASON     = "failureReason"
	META_WEBHOOK_PROCESSED  = "webhookProcessedAt"
	META_MANUALLY_MARKED_BY = "manuallyMarkedBy"
	META_MANUALLY_MARKED_AT = "manuallyMarkedAt"
	META_RECONCILED_AT      = "reconciledAt"
)

type NotificationKind string

const (
	NOTIFY_CONFIRMATION         NotificationKind = "confirmation"
	NOTIFY_CANCELLATION         NotificationKind = "cancellation"
	NOTIFY_PAYMENT_CONFIRMATION NotificationKind = "payment_confirmation"
	NOTIFY_REMINDER             NotificationKind = "reminder"
)

type ItemKind string

const (
	ITEM_ACTIVITY ItemKind = "activity"
	ITEM_PLACE    ItemKind = "place"
)

// BookableItem is the subset of a Place or Activity the booking flow needs.
type BookableItem struct {
	ID        string   `json:"id"`
	Kind      ItemKind `json:"kind"`
	Title     string   `json:"title"`
	City      string   `json:"city,omitempty"`
	Location  string   `json:"location,omitempty"`
	Price     float64  `json:"price,omitempty"`
	BasePrice float64  `json:"base_price,omitempty"`
}

type PricingBreakdown struct {
	BasePrice  float64 `json:"base_price"`
	Subtotal   float64 `json:"subtotal"`
	Tax        float64 `json:"tax"`
	ServiceFee float64 `json:"service_fee"`
	PromoOff   float64 `json:"promo_off"`
	Total      float64 `json:"total"`
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID    uint
	Role  Role
	Name  string
	Email string
	Phone string
}

func (a Actor) IsAdmin() bool {
	return a.Role == ROLE_ADMIN
}

// CanAccess reports whether the actor is the owner or an admin.
func (a Actor) CanAccess(ownerID uint) bool {
	return a.ID == ownerID || a.IsAdmin()
}

type UUIDRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type ReadQueryFilters struct {
	IncludeDeleted bool `form:"includeDeleted,omitempty"`
}

type CreateBookingRequestBody struct {
	PlaceID            *string           `json:"place_id,omitempty" binding:"omitempty,uuid"`
	ActivityID         *string           `json:"activity_id,omitempty" binding:"omitempty,uuid"`
	Date               string            `json:"date" binding:"required,bookingdate"`
	Time               string            `json:"time,omitempty"`
	Participants       int               `json:"participants,omitempty"`
	PeopleCount        int               `json:"people_count,omitempty"`
	Customer           *Person           `json:"customer,omitempty"`
	ParticipantDetails []Person          `json:"participant_details,omitempty"`
	SpecialRequests    string            `json:"special_requests,omitempty"`
	TotalAmount        *float64          `json:"total_amount,omitempty"`
	Pricing            *PricingBreakdown `json:"pricing,omitempty"`
}

type UpdateBookingRequestBody struct {
	Date            *string `json:"date,omitempty" binding:"omitempty,bookingdate"`
	Participants    *int    `json:"participants,omitempty"`
	SpecialRequests *string `json:"special_requests,omitempty"`
}

type CancelBookingRequestBody struct {
	Reason string `json:"reason,omitempty"`
}

type BookingStatusRequestBody struct {
	Status string `json:"status" binding:"required"`
}

type ConfirmPaymentRequestBody struct {
	PaymentID string   `json:"payment_id" binding:"required"`
	Amount    *float64 `json:"amount,omitempty" binding:"omitempty,gt=0"`
}

type CreateOrderRequestBody struct {
	BookingID string  `json:"booking_id" binding:"required,uuid"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type VerifyPaymentRequestBody struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
	BookingID string `json:"booking_id" binding:"required,uuid"`
}

type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
	jwt.RegisteredClaims
}

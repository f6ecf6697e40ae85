package controllers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/models"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/santupramanik23/my-guide-backend/src/utils"
)

const DEFAULT_CANCELLATION_REASON = "Cancelled by user"

// Bookings owns the booking lifecycle. Every mutation reads the current
// record, checks its guards and writes the whole record back.
type Bookings struct {
	Store    BookingStore
	Items    ItemLookup
	Notifier Notifier
	Receipts ReceiptRenderer
	Config   *config.Config
	Now      func() time.Time
}

func NewBookings(store BookingStore, items ItemLookup, notifier Notifier, receipts ReceiptRenderer, cfg *config.Config) *Bookings {
	return &Bookings{
		Store:    store,
		Items:    items,
		Notifier: notifier,
		Receipts: receipts,
		Config:   cfg,
		Now:      time.Now,
	}
}

func (c *Bookings) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Bookings) participants(counts ...int) (int, error) {
	n := 1
	for _, v := range counts {
		if v != 0 {
			n = v
			break
		}
	}
	lo, hi := c.Config.Booking.MinParticipants, c.Config.Booking.MaxParticipants
	if n < lo || n > hi {
		return 0, types.ValidationErr(fmt.Sprintf("Participants must be between %d and %d", lo, hi))
	}
	return n, nil
}

func parseOptionalID(value *string, field string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, types.ValidationErr(fmt.Sprintf("Invalid %s", field))
	}
	return &id, nil
}

func (c *Bookings) Create(ctx context.Context, actor types.Actor, body types.CreateBookingRequestBody) (*models.Booking, error) {
	date, err := utils.ParseBookingDate(body.Date)
	if err != nil {
		return nil, types.ValidationErr("Invalid booking date")
	}
	activityID, err := parseOptionalID(body.ActivityID, "activity_id")
	if err != nil {
		return nil, err
	}
	placeID, err := parseOptionalID(body.PlaceID, "place_id")
	if err != nil {
		return nil, err
	}
	if activityID == nil && placeID == nil {
		return nil, types.ValidationErr("Either activity_id or place_id is required")
	}
	participants, err := c.participants(body.Participants, body.PeopleCount)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		UserID:          actor.ID,
		ActivityID:      activityID,
		PlaceID:         placeID,
		Date:            date,
		Time:            body.Time,
		SpecialRequests: body.SpecialRequests,
		Status:          types.BOOKING_CONFIRMED,
		PaymentStatus:   types.PAYMENT_PENDING,
	}
	booking.SetParticipants(participants)

	if len(body.ParticipantDetails) > 0 {
		booking.Contact = types.StructuredContact(body.ParticipantDetails)
	} else if body.Customer != nil {
		booking.Contact = types.SnapshotContact(*body.Customer)
	} else {
		booking.Contact = types.SnapshotContact(actorPerson(actor))
	}

	c.applyPricing(ctx, booking, body)

	if err := c.Store.Create(ctx, booking); err != nil {
		log.Printf("Error creating booking for user [%d]: %s\n", actor.ID, err.Error())
		return nil, err
	}
	dispatchNotification(c.Notifier, c.Items, c.Config.NotifyTimeout, types.NOTIFY_CONFIRMATION, *booking, recipient(booking, &actor))
	return booking, nil
}

// applyPricing computes the breakdown from the booked item unless the caller
// supplied a total. A missing item leaves the total at 0.
func (c *Bookings) applyPricing(ctx context.Context, b *models.Booking, body types.CreateBookingRequestBody) {
	if body.TotalAmount != nil && *body.TotalAmount > 0 {
		b.TotalAmount = *body.TotalAmount
		if body.Pricing != nil {
			b.Pricing = *body.Pricing
		}
		return
	}
	item := ResolveItem(ctx, c.Items, b)
	if item == nil {
		b.TotalAmount = 0
		if body.Pricing != nil {
			b.Pricing = *body.Pricing
		}
		return
	}
	promoOff := 0.0
	if body.Pricing != nil {
		promoOff = body.Pricing.PromoOff
	}
	rates := c.Config.Pricing
	b.Pricing = utils.CalculatePricing(utils.ResolveBasePrice(item, rates), b.Participants, promoOff, rates)
	b.TotalAmount = b.Pricing.Total
}

func (c *Bookings) MyBookings(ctx context.Context, actor types.Actor, includeDeleted bool) ([]models.Booking, error) {
	return c.Store.ListByUser(ctx, actor.ID, includeDeleted)
}

func (c *Bookings) AllBookings(ctx context.Context, actor types.Actor, includeDeleted bool) ([]models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, types.ForbiddenErr("Admin access required")
	}
	return c.Store.ListAll(ctx, includeDeleted)
}

func (c *Bookings) GetByID(ctx context.Context, actor types.Actor, id uuid.UUID, includeDeleted bool) (*models.Booking, error) {
	b, err := c.Store.FindByID(ctx, id, includeDeleted)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, types.ForbiddenErr("You are not allowed to view this booking")
	}
	return b, nil
}

func (c *Bookings) Update(ctx context.Context, actor types.Actor, id uuid.UUID, body types.UpdateBookingRequestBody) (*models.Booking, error) {
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID {
		return nil, types.ForbiddenErr("You can only update your own bookings")
	}
	if !b.Status.IsEditable() {
		return nil, types.InvalidStateErr("Can only update pending or confirmed bookings")
	}
	if body.Date != nil {
		date, err := utils.ParseBookingDate(*body.Date)
		if err != nil {
			return nil, types.ValidationErr("Invalid booking date")
		}
		b.Date = date
	}
	if body.Participants != nil {
		n, err := c.participants(*body.Participants)
		if err != nil {
			return nil, err
		}
		b.SetParticipants(n)
	}
	if body.SpecialRequests != nil {
		b.SpecialRequests = *body.SpecialRequests
	}
	if err := c.Store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Bookings) Cancel(ctx context.Context, actor types.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, types.ForbiddenErr("You are not allowed to cancel this booking")
	}
	if b.Status == types.BOOKING_CANCELLED {
		return nil, types.InvalidStateErr("Booking is already cancelled")
	}
	minHours := c.Config.Booking.MinCancellationHours
	if b.Date.Sub(c.now()).Hours() < float64(minHours) {
		return nil, types.InvalidStateErr(fmt.Sprintf("Cancellation must be done at least %d hours before the booking date", minHours))
	}
	if reason == "" {
		reason = DEFAULT_CANCELLATION_REASON
	}
	b.Status = types.BOOKING_CANCELLED
	b.CancellationReason = &reason
	if err := c.Store.Save(ctx, b); err != nil {
		return nil, err
	}
	dispatchNotification(c.Notifier, c.Items, c.Config.NotifyTimeout, types.NOTIFY_CANCELLATION, *b, recipient(b, &actor))
	return b, nil
}

// QuickUpdateStatus moves the booking along the transition table.
func (c *Bookings) QuickUpdateStatus(ctx context.Context, actor types.Actor, id uuid.UUID, status string) (*models.Booking, error) {
	target, err := types.ParseBookingStatus(status)
	if err != nil {
		return nil, types.ValidationErr("Invalid status")
	}
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, types.ForbiddenErr("You are not allowed to update this booking")
	}
	if !b.Status.CanTransitionTo(target) {
		return nil, types.InvalidStateErr(fmt.Sprintf("Cannot change status from %s to %s", b.Status, target))
	}
	b.Status = target
	if err := c.Store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// AdminSetStatus sets any status without consulting the transition table.
func (c *Bookings) AdminSetStatus(ctx context.Context, actor types.Actor, id uuid.UUID, status string) (*models.Booking, error) {
	if !actor.IsAdmin() {
		return nil, types.ForbiddenErr("Admin access required")
	}
	target, err := types.ParseBookingStatus(status)
	if err != nil {
		return nil, types.ValidationErr("Invalid status")
	}
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	b.Status = target
	if err := c.Store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Bookings) Delete(ctx context.Context, actor types.Actor, id uuid.UUID) error {
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return err
	}
	if !actor.CanAccess(b.UserID) {
		return types.ForbiddenErr("You are not allowed to delete this booking")
	}
	now := c.now()
	if b.Status != types.BOOKING_CANCELLED && !b.Date.Before(now) {
		return types.InvalidStateErr("Only cancelled or past bookings can be deleted")
	}
	b.SoftDelete(now)
	return c.Store.Save(ctx, b)
}

// ConfirmPayment marks the booking paid without a gateway round trip.
func (c *Bookings) ConfirmPayment(ctx context.Context, actor types.Actor, id uuid.UUID, body types.ConfirmPaymentRequestBody) (*models.Booking, error) {
	b, err := c.Store.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if b.UserID != actor.ID {
		return nil, types.ForbiddenErr("You can only confirm payment for your own bookings")
	}
	b.MarkPaid(body.PaymentID)
	if body.Amount != nil {
		b.TotalAmount = *body.Amount
	}
	if err := c.Store.Save(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Receipt renders the booking receipt. Rendering never changes the booking.
func (c *Bookings) Receipt(ctx context.Context, actor types.Actor, id uuid.UUID) ([]byte, *models.Booking, error) {
	b, err := c.GetByID(ctx, actor, id, false)
	if err != nil {
		return nil, nil, err
	}
	if c.Receipts == nil {
		return nil, nil, types.InternalErr(fmt.Errorf("receipt renderer is not configured"))
	}
	doc, err := c.Receipts.Render(lib.ReceiptInput{
		Booking:     b,
		Recipient:   recipient(b, &actor),
		Item:        ResolveItem(ctx, c.Items, b),
		Currency:    c.Config.Razorpay.Currency,
		FrontendURL: c.Config.FrontendURL,
	})
	if err != nil {
		log.Printf("Error rendering receipt for booking [%s]: %s\n", b.ID.String(), err.Error())
		return nil, nil, types.InternalErr(err)
	}
	return doc, b, nil
}

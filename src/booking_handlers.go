package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santupramanik23/my-guide-backend/src/controllers"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/middlewares"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

func bookingHandlers(g *gin.RouterGroup, c *controllers.Bookings) *gin.RouterGroup {
	g.
		POST("/bookings", func(ctx *gin.Context) {
			var body types.CreateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := c.Create(ctx.Request.Context(), middlewares.ActorFromContext(ctx), body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": booking})
		}).
		GET("/bookings/my", func(ctx *gin.Context) {
			bookings, err := c.MyBookings(ctx.Request.Context(), middlewares.ActorFromContext(ctx), includeDeleted(ctx))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		GET("/bookings/:id", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			booking, err := c.GetByID(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, includeDeleted(ctx))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PUT("/bookings/:id", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.UpdateBookingRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := c.Update(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PATCH("/bookings/:id/cancel", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.CancelBookingRequestBody
			// The reason is optional, so is the body.
			if ctx.Request.Body != nil && ctx.Request.ContentLength != 0 {
				if err := ctx.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
					ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}
			booking, err := c.Cancel(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, body.Reason)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		PATCH("/bookings/:id/status", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.BookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := c.QuickUpdateStatus(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, body.Status)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		POST("/bookings/:id/confirm-payment", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.ConfirmPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := c.ConfirmPayment(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		}).
		GET("/bookings/:id/receipt", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			doc, booking, err := c.Receipt(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", lib.ReceiptFilename(booking)))
			ctx.Data(http.StatusOK, "application/pdf", doc)
		}).
		DELETE("/bookings/:id", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			if err := c.Delete(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id); err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"message": "Booking deleted successfully"})
		})
	return g
}

func adminBookingHandlers(g *gin.RouterGroup, c *controllers.Bookings) *gin.RouterGroup {
	g.
		GET("/bookings", func(ctx *gin.Context) {
			bookings, err := c.AllBookings(ctx.Request.Context(), middlewares.ActorFromContext(ctx), includeDeleted(ctx))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": bookings, "count": len(bookings)})
		}).
		PATCH("/bookings/:id/status", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			var body types.BookingStatusRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, err := c.AdminSetStatus(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id, body.Status)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": booking})
		})
	return g
}

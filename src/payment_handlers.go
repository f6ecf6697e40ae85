package main

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santupramanik23/my-guide-backend/src/controllers"
	"github.com/santupramanik23/my-guide-backend/src/middlewares"
	"github.com/santupramanik23/my-guide-backend/src/types"
)

const HEADER_RAZORPAY_SIGNATURE = "X-Razorpay-Signature"

func paymentHandlers(g *gin.RouterGroup, c *controllers.Payments) *gin.RouterGroup {
	g.
		POST("/payments/order", func(ctx *gin.Context) {
			var body types.CreateOrderRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			order, err := c.CreateOrder(ctx.Request.Context(), middlewares.ActorFromContext(ctx), body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": order})
		}).
		POST("/payments/verify", func(ctx *gin.Context) {
			var body types.VerifyPaymentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			booking, payment, err := c.VerifyPayment(ctx.Request.Context(), body)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"booking": booking, "payment": payment}})
		}).
		GET("/payments", func(ctx *gin.Context) {
			payments, err := c.ListPayments(ctx.Request.Context(), middlewares.ActorFromContext(ctx))
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payments, "count": len(payments)})
		}).
		GET("/payments/:id", func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			payment, err := c.GetPayment(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": payment})
		}).
		POST("/payments/:id/mark-paid", middlewares.RequireRole(types.ROLE_ADMIN), func(ctx *gin.Context) {
			id, ok := bindID(ctx)
			if !ok {
				return
			}
			payment, booking, err := c.MarkPaid(ctx.Request.Context(), middlewares.ActorFromContext(ctx), id)
			if err != nil {
				respondError(ctx, err)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": gin.H{"payment": payment, "booking": booking}})
		})
	return g
}

// webhookHandlers is mounted outside the auth group. Every delivery is
// acknowledged so the gateway stops retrying; missed events are picked up by
// the reconcile job.
func webhookHandlers(g *gin.RouterGroup, c *controllers.Payments) *gin.RouterGroup {
	g.POST("/payments/webhook", func(ctx *gin.Context) {
		body, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading webhook body: %s\n", err.Error())
			ctx.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		if err := c.HandleWebhook(ctx.Request.Context(), body, ctx.GetHeader(HEADER_RAZORPAY_SIGNATURE)); err != nil {
			log.Printf("Error handling webhook: %s\n", err.Error())
		}
		ctx.JSON(http.StatusOK, gin.H{"received": true})
	})
	return g
}

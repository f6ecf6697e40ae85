package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"strconv"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"github.com/santupramanik23/my-guide-backend/src/boot"
	"github.com/santupramanik23/my-guide-backend/src/config"
	"github.com/santupramanik23/my-guide-backend/src/controllers"
	"github.com/santupramanik23/my-guide-backend/src/lib"
	"github.com/santupramanik23/my-guide-backend/src/lib/mailer"
	"github.com/santupramanik23/my-guide-backend/src/middlewares"
	"github.com/santupramanik23/my-guide-backend/src/types"
	"github.com/santupramanik23/my-guide-backend/src/utils"
)

const (
	apiPrefix string = "/api/v1"

	WEBHOOK_DEDUPE_TTL = 24 * time.Hour
)

var bookingDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := utils.ParseBookingDate(date)
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookingdate", bookingDateValidatorFunc)
	}
}

// app is everything the routes need.
type app struct {
	Bookings *controllers.Bookings
	Payments *controllers.Payments
	Limiter  *lib.RateLimiter
}

func newApp(cfg *config.Config, stores boot.Stores, notifier controllers.Notifier, gateway controllers.PaymentGateway, deduper controllers.Deduper, limiter *lib.RateLimiter) *app {
	return &app{
		Bookings: controllers.NewBookings(stores.Bookings, stores.Items, notifier, lib.NewPDFReceiptRenderer(), cfg),
		Payments: controllers.NewPayments(stores.Bookings, stores.Payments, stores.Items, notifier, gateway, deduper, cfg),
		Limiter:  limiter,
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

// maintenanceModeMiddleware answers 503 while MAINTENANCE_MODE is true.
func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		on, err := strconv.ParseBool(os.Getenv("MAINTENANCE_MODE"))
		if err == nil && on {
			log.Println("server is under maintenance")
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "server is under maintenance"})
			return
		}
	})
	return g
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

// registerRoutes mounts the gateway webhook ahead of the rate limiter so that
// deliveries are always acknowledged.
func registerRoutes(router *gin.Engine, a *app) {
	webhookHandlers(apiv1Group(router), a.Payments)

	apiv1 := apiv1Group(router)
	apiv1.Use(middlewares.RateLimit(a.Limiter))

	authorized := apiv1.Group("")
	authorized.Use(middlewares.AuthMiddleware)
	{
		bookingHandlers(authorized, a.Bookings)
		paymentHandlers(authorized, a.Payments)

		admin := authorized.Group("/admin")
		admin.Use(middlewares.RequireRole(types.ROLE_ADMIN))
		adminBookingHandlers(admin, a.Bookings)
	}
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if cfg.Env == "local" {
		return cors.Default()
	}
	appHost := os.Getenv("APP_HOST")
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		if origin == cfg.FrontendURL {
			return true
		}
		if appHost == "" {
			return false
		}
		match, _ := regexp.MatchString(appHost, origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(path.Dir(apiLogs), 0o755); err != nil {
		log.Printf("Error creating log directory: %s\n", err.Error())
	}
	f, err := os.Create(apiLogs)
	if err != nil {
		gin.DefaultWriter = os.Stdout
	} else {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	cfg := config.Load()
	if utils.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	middlewares.JWTKey = []byte(os.Getenv("JWT_SECRET"))

	stores := boot.InitStores(cfg)
	notifier := mailer.NewDispatcher(mailer.NewSender(cfg.Mail), cfg)
	gateway := lib.GetRazorpayClient()
	if !gateway.Configured() {
		log.Println("[razorpay] RAZORPAY_KEY_ID or RAZORPAY_KEY_SECRET is not set. Orders will fail")
	}
	rdb := lib.GetRedisClient()
	deduper := lib.NewWebhookDeduper(rdb, WEBHOOK_DEDUPE_TTL)
	limiter := lib.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow)

	a := newApp(cfg, stores, notifier, gateway, deduper, limiter)

	boot.InitScheduler(boot.Jobs{
		Bookings: stores.Bookings,
		Items:    stores.Items,
		Notifier: notifier,
		Payments: a.Payments,
		Config:   cfg,
	})
	defer boot.StopScheduler()

	router := setupRouter()
	router.Use(corsMiddleware(cfg))
	registerValidators()
	router = maintenanceModeMiddleware(router)
	registerRoutes(router, a)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}

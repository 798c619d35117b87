package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/stripe/stripe-go/v82"
	twilio "github.com/twilio/twilio-go"
	_ "time/tzdata"

	"github.com/coralpointe/association-portal/internal/app"
	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/config"
	"github.com/coralpointe/association-portal/internal/constants"
	"github.com/coralpointe/association-portal/internal/controllers"
	"github.com/coralpointe/association-portal/internal/middleware"
	"github.com/coralpointe/association-portal/internal/repositories"
	"github.com/coralpointe/association-portal/internal/routes"
	"github.com/coralpointe/association-portal/internal/services"
	"github.com/coralpointe/association-portal/internal/utils"
)

func main() {
	utils.InitLogger(constants.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize association-portal:", err)
	}
	defer application.Close()

	stripe.Key = cfg.StripeSecretKey

	// Repositories
	unitRepo := repositories.NewUnitRepository(application.DB)
	entryRepo := repositories.NewLedgerEntryRepository(application.DB)
	paymentRepo := repositories.NewPaymentRepository(application.DB)
	ownerRepo := repositories.NewOwnerRepository(application.DB)
	invoiceRepo := repositories.NewInvoiceRepository(application.DB)
	vendorRepo := repositories.NewVendorRepository(application.DB)
	fundRepo := repositories.NewFundRepository(application.DB)
	auditRepo := repositories.NewAuditLogRepository(application.DB)

	// Services
	matrix := authz.NewMatrix()
	twilioClient := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.TwilioAccountSID,
		Password: cfg.TwilioAuthToken,
	})
	notifier := services.NewNotificationService(
		cfg.SendgridAPIKey, cfg.SendgridFromEmail, "Coral Pointe Association",
		twilioClient, cfg.TwilioFromNumber, cfg.NotificationSandbox,
	)

	ledgerService := services.NewLedgerService(unitRepo, entryRepo)
	delinquencyService := services.NewDelinquencyService(matrix, unitRepo, entryRepo, auditRepo, ownerRepo, notifier)
	allocationService := services.NewAllocationService(unitRepo, entryRepo, paymentRepo, delinquencyService)
	paymentService := services.NewPaymentService(matrix, paymentRepo, fundRepo, allocationService)
	unitService := services.NewUnitService(matrix, unitRepo, auditRepo, ledgerService)
	transferService := services.NewTransferService(matrix, fundRepo, auditRepo)
	invoiceService := services.NewInvoiceService(matrix, invoiceRepo, vendorRepo, fundRepo, auditRepo, ownerRepo, notifier)
	vendorService := services.NewVendorService(matrix, vendorRepo)
	importService := services.NewImportService(matrix, unitRepo, entryRepo, ledgerService)
	billingService := services.NewBillingService(unitRepo, entryRepo, ledgerService, cfg.MonthlyAssessment)

	if cfg.SeedDbWithTestData {
		if err := app.SeedTestData(context.Background(), unitRepo, ownerRepo, ledgerService); err != nil {
			utils.Logger.Fatal("Failed to seed test data:", err)
		}
	}

	// Controllers
	healthController := controllers.NewHealthController(application)
	unitController := controllers.NewUnitController(unitService, delinquencyService)
	paymentController := controllers.NewPaymentController(paymentService)
	stripeWebhookController := controllers.NewStripeWebhookController(cfg.StripeWebhookSecret, paymentService)
	invoiceController := controllers.NewInvoiceController(invoiceService)
	vendorController := controllers.NewVendorController(vendorService)
	transferController := controllers.NewTransferController(transferService)
	adminController := controllers.NewAdminController(delinquencyService, importService)

	// Router setup
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.PaymentsWebhook, stripeWebhookController.WebhookHandler).Methods(http.MethodPost)

	// Secured routes
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.Units, unitController.ListUnitsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Unit, unitController.GetUnitHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitLedger, unitController.GetLedgerHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitCharges, unitController.PostChargeHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitPayments, paymentController.ListUnitPaymentsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitAttorneyFlag, unitController.SetAttorneyFlagHandler).Methods(http.MethodPut)
	secured.HandleFunc(routes.Payments, paymentController.RecordPaymentHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Invoices, invoiceController.CreateInvoiceHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Invoices, invoiceController.ListInvoicesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.InvoiceDecision, invoiceController.DecideInvoiceHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.InvoicePaid, invoiceController.MarkInvoicePaidHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Vendors, vendorController.CreateVendorHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.Vendors, vendorController.ListVendorsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Vendor, vendorController.DeactivateVendorHandler).Methods(http.MethodDelete)
	secured.HandleFunc(routes.FundTransfer, transferController.TransferHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.FundBalances, transferController.ListBalancesHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.AdminSweep, adminController.RunSweepHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.AdminImport, adminController.ImportBalancesHandler).Methods(http.MethodPost)

	// Cron job setup. Jobs run on the property's local clock so "nightly"
	// and "first of the month" mean what the board expects.
	loc, err := time.LoadLocation(constants.BusinessTimezone)
	if err != nil {
		utils.Logger.Fatal("Failed to load business timezone:", err)
	}
	c := cron.New(cron.WithLocation(loc))

	_, err = c.AddFunc(constants.DelinquencySweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.DelinquencySweepTimeout)
		defer cancel()
		utils.Logger.Info("Starting nightly delinquency sweep...")
		if err := delinquencyService.RunNightlySweep(ctx); err != nil {
			utils.Logger.WithError(err).Error("Nightly delinquency sweep failed")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule delinquency sweep cron")
	}

	_, err = c.AddFunc(constants.MonthlyAssessmentCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.MonthlyAssessmentTimeout)
		defer cancel()
		utils.Logger.Info("Starting monthly assessment billing...")
		if err := billingService.PostMonthlyAssessments(ctx, time.Now().In(loc)); err != nil {
			utils.Logger.WithError(err).Error("Monthly assessment billing failed")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule monthly assessment cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled delinquency and billing cron jobs")

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("association-portal failed to start:", err)
	}
}

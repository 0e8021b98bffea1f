package bootstrap

import (
	"context"
	"log"

	"leadflow-be/internal/config"
	"leadflow-be/internal/controller"
	"leadflow-be/internal/handler"
	"leadflow-be/internal/pkg/logger"
	"leadflow-be/internal/pkg/mailer"
	"leadflow-be/internal/repository/unitofwork"
	"leadflow-be/internal/service"
	"leadflow-be/pkg/billing/authenticator"
	"leadflow-be/pkg/billing/cancellation"
	"leadflow-be/pkg/billing/events"
	"leadflow-be/pkg/billing/ledger"
	"leadflow-be/pkg/billing/reference"
	"leadflow-be/pkg/billing/sweep"
	"leadflow-be/pkg/catalog"
	"leadflow-be/pkg/lock"
	pktNats "leadflow-be/pkg/nats"
	"leadflow-be/pkg/provider"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	WebhookController controller.IWebhookController
	PaymentController controller.IPaymentController
	AdminController   controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	Sweeper             *sweep.Sweeper
	NotificationHandler *handler.NotificationHandler
	NatsSubscriber      *pktNats.Subscriber

	Logger logger.ILogger

	closers []func()
}

func NewContainer(uowFactory unitofwork.RepositoryFactory, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(logger.Options{
		FilePath:   cfg.App.LogFilePath,
		Production: cfg.App.Environment == "production",
		Level:      cfg.App.LogLevel,
	})
	c := &Container{Logger: sysLogger}

	var emailService mailer.IEmailService
	if cfg.SMTP.Host != "" && len(cfg.Support.NotifyEmails) > 0 {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
			cfg.Support.NotifyEmails,
			cfg.Support.AdminURL,
		)
	} else {
		log.Println("[WARN] SMTP or SUPPORT_NOTIFY_EMAILS not configured, ticket e-mails disabled")
		emailService = mailer.NewNoopEmailService()
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else {
			c.NatsSubscriber = natsSub
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// Redis
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		locker = lock.NewRedisLocker(rdb)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		log.Println("[WARN] REDIS_URL not set, sweep lock is process-local")
	}

	// 3. Domain
	planCatalog := catalog.New(cfg.Payment.CatalogCacheTTL)
	publisher := events.NewNatsPublisher(natsPub, sysLogger)

	// With both NATS ends up, operators are mailed by the bus consumer so a crash
	// after commit still delivers the mail. Otherwise the workflow mails directly.
	var notifier cancellation.Notifier = emailService
	if natsPub != nil && c.NatsSubscriber != nil {
		notifier = nil
		c.NotificationHandler = handler.NewNotificationHandler(uowFactory, emailService, sysLogger)
	}
	cancellationWorkflow := cancellation.NewWorkflow(notifier, publisher, sysLogger)

	serverKey := ""
	if cfg.Webhook.VerifySignature {
		serverKey = cfg.Payment.MidtransServerKey
	}
	eventAuthenticator := authenticator.NewAuthenticator(serverKey)
	resolver := reference.NewResolver(planCatalog, cfg.Webhook.IdentityLookupTimeout)
	updater := ledger.NewUpdater(planCatalog, cancellationWorkflow, sysLogger)

	providerClient := provider.NewHTTPClient(cfg.Payment.ProviderAPIURL, cfg.Payment.MidtransServerKey, cfg.Payment.ProviderTimeout)
	sweeper := sweep.NewSweeper(providerClient, uowFactory, planCatalog, locker, publisher, sysLogger, sweep.Config{
		Interval:      cfg.Sweep.Interval,
		PageSize:      cfg.Sweep.PageSize,
		LockTTL:       cfg.Sweep.LockTTL,
		LookupTimeout: cfg.Webhook.IdentityLookupTimeout,
	})
	c.Sweeper = sweeper

	// 4. Services
	consumerService := service.NewConsumerService(pubSub, pubSub, cfg.App.ExtensionTopic, uowFactory, sysLogger)
	c.ConsumerService = consumerService

	webhookService := service.NewWebhookService(
		uowFactory,
		eventAuthenticator,
		resolver,
		updater,
		cancellationWorkflow,
		publisher,
		consumerService,
		sysLogger,
		cfg.Webhook.ProcessingTimeout,
	)
	paymentService := service.NewPaymentService(
		uowFactory,
		planCatalog,
		service.NewSnapGateway(cfg.Payment.MidtransServerKey, cfg.Payment.MidtransProduction),
		updater,
		cancellationWorkflow,
		publisher,
		consumerService,
		sysLogger,
		cfg.App.ClientURL,
	)
	adminService := service.NewAdminService(uowFactory, webhookService, cancellationWorkflow, sweeper)

	// 5. Controllers
	c.WebhookController = controller.NewWebhookController(webhookService)
	c.PaymentController = controller.NewPaymentController(paymentService, cfg.App.JwtSecret)
	c.AdminController = controller.NewAdminController(adminService, cfg.App.JwtSecret)

	return c
}

// Close releases the infrastructure clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}

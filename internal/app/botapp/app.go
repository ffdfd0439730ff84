package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/moonssword/dating-bot/internal/config"
	"github.com/moonssword/dating-bot/internal/domain/enums"
	"github.com/moonssword/dating-bot/internal/infra/geocode"
	"github.com/moonssword/dating-bot/internal/infra/httpclient"
	paymentinfra "github.com/moonssword/dating-bot/internal/infra/payment"
	s3infra "github.com/moonssword/dating-bot/internal/infra/s3"
	"github.com/moonssword/dating-bot/internal/infra/telegram"
	"github.com/moonssword/dating-bot/internal/infra/vision"
	"github.com/moonssword/dating-bot/internal/jobs/sweep"
	pgrepo "github.com/moonssword/dating-bot/internal/repo/postgres"
	redrepo "github.com/moonssword/dating-bot/internal/repo/redis"
	"github.com/moonssword/dating-bot/internal/services/classify"
	convsvc "github.com/moonssword/dating-bot/internal/services/conversation"
	geosvc "github.com/moonssword/dating-bot/internal/services/geo"
	matchsvc "github.com/moonssword/dating-bot/internal/services/matching"
	mediasvc "github.com/moonssword/dating-bot/internal/services/media"
	modsvc "github.com/moonssword/dating-bot/internal/services/moderation"
	paysvc "github.com/moonssword/dating-bot/internal/services/payments"
	ratesvc "github.com/moonssword/dating-bot/internal/services/rate"
	subsvc "github.com/moonssword/dating-bot/internal/services/subscription"
	"github.com/moonssword/dating-bot/internal/ui"
)

// App is the bot composition root. It owns the infra clients, wires
// the service graph, listens for telegram updates and executes the
// effects the conversation service returns.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	postgres *pgxpool.Pool
	redis    *goredis.Client
	s3       *minio.Client
	bot      *telegram.Bot
	server   *http.Server

	accounts  *pgrepo.AccountRepo
	payClient *paymentinfra.Client

	conversation *convsvc.Service
	moderation   *modsvc.Service
	payments     *paysvc.Service
	limiter      *ratesvc.Limiter
	notifier     *botNotifier
	sweepJob     *sweep.Job
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	bot, err := telegram.NewBot(cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := redrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	s3Client, err := s3infra.NewClient(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.UseSSL)
	if err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init s3: %w", err)
	}

	geocodeClient := geocode.NewClient(cfg.Geocode.BaseURL, httpclient.New(cfg.Geocode.Timeout))
	visionClient := vision.NewClient(cfg.Vision.BaseURL, httpclient.New(cfg.Vision.Timeout))
	payClient := paymentinfra.NewClient(cfg.Payment.BaseURL, cfg.Payment.MerchantID, cfg.Payment.APIKey, httpclient.New(30*time.Second))

	accountRepo := pgrepo.NewAccountRepo(pool)
	profileRepo := pgrepo.NewProfileRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	photoRepo := pgrepo.NewPhotoRepo(pool)
	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)

	sessionRepo := redrepo.NewSessionRepo(redisClient, cfg.Session.TTL)
	cityCacheRepo := redrepo.NewCityCacheRepo(redisClient, cfg.Session.CityOptionsTTL)
	rateRepo := redrepo.NewRateRepo(redisClient)

	notifier := newBotNotifier(bot, accountRepo, cfg.Bot.AdminChatID)

	subscriptionService := subsvc.NewService(subscriptionRepo, cfg.Payment.Plans)
	paymentService := paysvc.NewService(subscriptionRepo, payClient, subscriptionService, paysvc.Config{
		Currency:        cfg.Payment.Currency,
		PollInterval:    cfg.Payment.PollInterval,
		PollMaxAttempts: cfg.Payment.PollMaxAttempts,
	}, logger)

	matchingService := matchsvc.NewService(matchsvc.Dependencies{
		Pool:          pool,
		Profiles:      profileRepo,
		Likes:         likeRepo,
		Matches:       matchRepo,
		Subscriptions: subscriptionService,
	}, matchsvc.Config{})

	moderationService := modsvc.NewService(accountRepo, profileRepo, photoRepo, notifier, modsvc.Config{
		ReportThreshold:      cfg.Moderation.ReportThreshold,
		PhotoRejectThreshold: cfg.Moderation.PhotoRejectThreshold,
		SupportContact:       cfg.Bot.SupportBot,
	})

	storage := mediasvc.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.PublicBase)
	mediaService := mediasvc.NewService(bot, storage, visionClient, photoRepo)
	geoService := geosvc.NewService(geocodeClient, cityCacheRepo)

	conversationService := convsvc.NewService(convsvc.Dependencies{
		Sessions:      sessionRepo,
		Accounts:      accountRepo,
		Profiles:      profileRepo,
		Matcher:       matchingService,
		Subscriptions: subscriptionService,
		Biller:        paymentService,
		Uploader:      mediaService,
		Locator:       geoService,
		Moderator:     moderationService,
	}, convsvc.Config{
		AgreementURL:   cfg.Bot.AgreementURL,
		SupportContact: cfg.Bot.SupportBot,
		Currency:       cfg.Payment.Currency,
	}, logger)

	sweepJob := sweep.New(subscriptionRepo, notifier, cfg.Payment.SweepInterval, logger)
	limiter := ratesvc.NewLimiter(rateRepo, cfg.Rate.EventsPerMinute, cfg.Rate.EventsPerBurst)

	app := &App{
		cfg:          cfg,
		logger:       logger,
		postgres:     pool,
		redis:        redisClient,
		s3:           s3Client,
		bot:          bot,
		accounts:     accountRepo,
		payClient:    payClient,
		conversation: conversationService,
		moderation:   moderationService,
		payments:     paymentService,
		limiter:      limiter,
		notifier:     notifier,
		sweepJob:     sweepJob,
	}

	router := chi.NewRouter()
	applyMiddlewares(router, logger)
	router.Post("/payment/notification", app.handlePaymentNotification)

	app.server = &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("bot app started",
		zap.String("http_addr", a.cfg.HTTP.Addr),
		zap.String("bot", a.bot.Username()),
	)

	errCh := make(chan error, 3)

	go func() {
		a.sweepJob.Loop(ctx)
		errCh <- nil
	}()

	go func() {
		errCh <- a.runHTTPServer(ctx)
	}()

	go func() {
		errCh <- a.bot.Listen(ctx, telegram.Handlers{
			OnCommand: func(ctx context.Context, u telegram.CommandUpdate) error {
				return a.handleEvent(ctx, classify.FromCommand(u))
			},
			OnText: func(ctx context.Context, u telegram.TextUpdate) error {
				return a.handleEvent(ctx, classify.FromText(u))
			},
			OnPhoto: func(ctx context.Context, u telegram.PhotoUpdate) error {
				return a.handleEvent(ctx, classify.FromPhoto(u))
			},
			OnLocation: func(ctx context.Context, u telegram.LocationUpdate) error {
				return a.handleEvent(ctx, classify.FromLocation(u))
			},
			OnCallback: func(ctx context.Context, u telegram.CallbackUpdate) error {
				return a.handleEvent(ctx, classify.FromCallback(u))
			},
		}, a.dispatch)
	}()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("bot app stopped")
			return nil
		case err := <-errCh:
			if err == nil || errors.Is(err, context.Canceled) {
				continue
			}
			return err
		}
	}
}

func (a *App) runHTTPServer(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("payment webhook server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown webhook server: %w", err)
		}
		return nil
	}
}

// dispatch runs each update handler in its own goroutine so a slow
// upload or geocode call does not stall the update feed.
func (a *App) dispatch(fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("update handler panicked", zap.Any("panic", r))
			}
		}()
		if err := fn(); err != nil {
			a.logger.Error("handle update failed", zap.Error(err))
		}
	}()
}

func (a *App) handleEvent(ctx context.Context, ev classify.Event) error {
	if a.cfg.Bot.AdminChatID != 0 && ev.ChatID == a.cfg.Bot.AdminChatID {
		return a.handleAdminEvent(ctx, ev)
	}

	retryAfter, allowed, err := a.limiter.Allow(ctx, ev.From.UserID)
	if err != nil {
		// Redis being down must not mute the bot.
		a.logger.Warn("flood guard check failed", zap.Error(err))
	} else if !allowed {
		a.logger.Debug("update dropped by flood guard",
			zap.Int64("telegram_id", ev.From.UserID),
			zap.Int64("retry_after_sec", retryAfter),
		)
		if ev.Kind == classify.KindCallback {
			return a.bot.AnswerCallback(ctx, ev.CallbackID, "")
		}
		return nil
	}

	effects, err := a.conversation.Handle(ctx, ev)
	if err != nil {
		return fmt.Errorf("conversation event: %w", err)
	}

	a.execute(ctx, ev, effects)
	return nil
}

// handleAdminEvent serves the moderator chat: review card verdicts and
// unblock decisions. Anything else there is ignored.
func (a *App) handleAdminEvent(ctx context.Context, ev classify.Event) error {
	if ev.Kind != classify.KindCallback {
		return nil
	}

	var verdict string
	var err error
	switch ev.Action.Kind {
	case classify.ActionModApprove:
		verdict = "Approved"
		err = a.moderation.Approve(ctx, ev.Action.TargetID)
	case classify.ActionModReject:
		verdict = "Rejected"
		err = a.moderation.Reject(ctx, ev.Action.TargetID)
	case classify.ActionUnblockApprove:
		verdict = "Unblocked"
		err = a.moderation.ApproveUnblock(ctx, ev.Action.TargetID)
	case classify.ActionUnblockReject:
		verdict = "Declined"
		err = a.moderation.RejectUnblock(ctx, ev.Action.TargetID)
	default:
		return a.bot.AnswerCallback(ctx, ev.CallbackID, "")
	}

	if err != nil {
		_ = a.bot.AnswerCallback(ctx, ev.CallbackID, "Failed, check logs")
		return fmt.Errorf("moderation verdict for %d: %w", ev.Action.TargetID, err)
	}

	if err := a.bot.AnswerCallback(ctx, ev.CallbackID, verdict); err != nil {
		a.logger.Warn("answer admin callback failed", zap.Error(err))
	}
	if ev.MessageID != 0 {
		if err := a.bot.DeleteMessage(ctx, ev.ChatID, ev.MessageID); err != nil {
			a.logger.Warn("remove review card failed", zap.Error(err))
		}
	}
	return nil
}

// execute performs the conversation effects in order. Delivery
// failures are logged, not returned: the session transition already
// happened and a retry would replay it.
func (a *App) execute(ctx context.Context, ev classify.Event, effects []convsvc.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case convsvc.SendMessage:
			msgID, err := a.bot.SendText(ctx, e.ChatID, e.Text, e.Keyboard)
			if err != nil {
				a.logger.Error("send message failed", zap.Int64("chat_id", e.ChatID), zap.Error(err))
				continue
			}
			if e.TrackPrompt {
				a.trackPrompt(ctx, ev, msgID)
			}
			if e.ExpireAfter > 0 {
				a.scheduleDelete(e.ChatID, msgID, e.ExpireAfter)
			}

		case convsvc.SendPhoto:
			msgID, err := a.bot.SendPhotoURL(ctx, e.ChatID, e.PhotoURL, e.Caption, e.Keyboard)
			if err != nil {
				a.logger.Error("send photo failed", zap.Int64("chat_id", e.ChatID), zap.Error(err))
				continue
			}
			if e.TrackPrompt {
				a.trackPrompt(ctx, ev, msgID)
			}

		case convsvc.EditMessage:
			if err := a.bot.EditMessageText(ctx, e.ChatID, e.MessageID, e.Text); err != nil {
				a.logger.Warn("edit message failed", zap.Error(err))
			}

		case convsvc.DeleteMessage:
			// The user may have cleared the chat already.
			if err := a.bot.DeleteMessage(ctx, e.ChatID, e.MessageID); err != nil {
				a.logger.Debug("delete message failed", zap.Error(err))
			}

		case convsvc.AnswerCallback:
			if err := a.bot.AnswerCallback(ctx, e.CallbackID, e.Text); err != nil {
				a.logger.Warn("answer callback failed", zap.Error(err))
			}

		case convsvc.NotifyAccount:
			var err error
			if e.PhotoURL != "" {
				err = a.notifier.NotifyAccountPhoto(ctx, e.AccountID, e.PhotoURL, e.Text, e.Keyboard)
			} else {
				err = a.notifier.NotifyAccount(ctx, e.AccountID, e.Text, e.Keyboard)
			}
			if err != nil {
				a.logger.Warn("notify account failed", zap.Int64("account_id", e.AccountID), zap.Error(err))
			}

		case convsvc.PollPayment:
			go a.watchPayment(ctx, e.OrderID, e.AccountID)

		default:
			a.logger.Error("unknown effect", zap.Any("effect", effect))
		}
	}
}

func (a *App) trackPrompt(ctx context.Context, ev classify.Event, messageID int) {
	account, err := a.accounts.GetByTelegramID(ctx, ev.From.UserID)
	if err != nil {
		a.logger.Warn("resolve account for prompt tracking failed", zap.Error(err))
		return
	}
	if err := a.conversation.SetLastPrompt(ctx, account.ID, messageID); err != nil {
		a.logger.Warn("save last prompt failed", zap.Int64("account_id", account.ID), zap.Error(err))
	}
}

func (a *App) scheduleDelete(chatID int64, messageID int, after time.Duration) {
	time.AfterFunc(after, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.bot.DeleteMessage(ctx, chatID, messageID); err != nil {
			a.logger.Debug("expire message failed", zap.Error(err))
		}
	})
}

// watchPayment follows one invoice until the provider reports a
// terminal status, then tells the buyer how it ended.
func (a *App) watchPayment(ctx context.Context, orderID string, accountID int64) {
	status, err := a.payments.Poll(ctx, orderID)
	if err != nil && !errors.Is(err, paysvc.ErrPollExpired) {
		if !errors.Is(err, context.Canceled) {
			a.logger.Warn("payment poll failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return
	}

	a.tellPaymentOutcome(ctx, accountID, status)
}

func (a *App) tellPaymentOutcome(ctx context.Context, accountID int64, status enums.PaymentStatus) {
	account, err := a.accounts.GetByID(ctx, accountID)
	if err != nil {
		a.logger.Warn("resolve buyer failed", zap.Int64("account_id", accountID), zap.Error(err))
		return
	}

	var text string
	switch status {
	case enums.PaymentStatusSuccess:
		text = ui.T(account.Locale, ui.MsgPaymentSuccess)
	case enums.PaymentStatusExpired:
		text = ui.T(account.Locale, ui.MsgPaymentExpired)
	default:
		return
	}

	if _, err := a.bot.SendText(ctx, account.TelegramID, text, nil); err != nil {
		a.logger.Warn("payment outcome notice failed", zap.Int64("account_id", accountID), zap.Error(err))
	}
}

func (a *App) Close() {
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("close redis failed", zap.Error(err))
		}
	}
}

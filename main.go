package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/joho/godotenv"

	"Portfolio/internal/api"
	"Portfolio/internal/assistant"
	"Portfolio/internal/boltstore"
	"Portfolio/internal/chat"
	"Portfolio/internal/config"
	"Portfolio/internal/conversation"
	"Portfolio/internal/db"
	"Portfolio/internal/deals"
	"Portfolio/internal/handlers"
	"Portfolio/internal/logger"
	"Portfolio/internal/metrics"
	"Portfolio/internal/notify"
	"Portfolio/internal/session"
	"Portfolio/internal/store"
	"Portfolio/internal/telegram_api"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// --- Блок инициализации ---
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	logg, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось создать логгер: %v", err)
	}
	defer logg.Sync()
	for _, w := range cfg.Warnings {
		logg.Warn(w)
	}

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logg.Fatal("Не удалось загрузить профиль владельца", "path", cfg.ProfilePath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("Не удалось открыть хранилище", "error", err)
	}

	m := metrics.New()

	var bot *telegram_api.BotClient
	if cfg.TelegramEnabled() {
		bot, err = telegram_api.NewBotClient(cfg.TelegramToken, cfg.IsDev(), logg)
		if err != nil {
			// Без бота сервис работает, уведомления уйдут только на почту.
			logg.Error("Telegram бот не запущен", "error", err)
			bot = nil
		}
	}

	dispatcher := notify.NewDispatcher(buildNotifier(cfg, bot, logg), logg, m)

	sessions := session.NewManager()
	convs := conversation.NewService(st, logg, m)
	dealManager := deals.NewManager(st, st, dispatcher, logg, m)
	chatAssistant := assistant.New(convs, st, chat.NewEngine(profile), sessions, profile, logg, m)

	// --- Настройка роутера и Middleware ---
	router, err := api.NewRouter(api.ApiDependencies{
		Config:        cfg,
		Profile:       profile,
		Store:         st,
		Conversations: convs,
		Assistant:     chatAssistant,
		Deals:         dealManager,
		Notifier:      dispatcher,
		Metrics:       m,
		Log:           logg,
	})
	if err != nil {
		logg.Fatal("Не удалось собрать роутер", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Запускаем HTTP-сервер в отдельной горутине
	serverErr := make(chan error, 1)
	go func() {
		logg.Info("Запуск HTTP-сервера", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Запуск самого бота
	botDone := make(chan struct{})
	if bot != nil {
		botHandler, err := handlers.NewBotHandler(handlers.HandlerDependencies{
			Sender:      bot,
			Deals:       dealManager,
			OwnerChatID: cfg.OwnerChatID,
			Log:         logg,
		})
		if err != nil {
			logg.Fatal("Не удалось создать обработчик бота", "error", err)
		}
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		updates := bot.GetUpdatesChan(u)
		go func() {
			defer close(botDone)
			botHandler.Run(ctx, updates)
		}()
	} else {
		close(botDone)
	}

	logg.Info("Сервис запущен и готов к работе", "store", storeKind(cfg), "telegram", bot != nil)

	select {
	case <-ctx.Done():
		logg.Info("Получен сигнал остановки")
	case err, ok := <-serverErr:
		if ok && err != nil {
			logg.Error("HTTP-сервер остановился с ошибкой", "error", err)
		}
	}
	stop()

	// --- Остановка: сервер, бот, фоновые уведомления, хранилище ---
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("HTTP-сервер остановлен некорректно", "error", err)
	}
	if bot != nil {
		bot.StopReceivingUpdates()
	}
	<-botDone
	dispatcher.Wait()
	if err := st.Close(); err != nil {
		logg.Error("Хранилище закрыто с ошибкой", "error", err)
	}
	logg.Info("Сервис остановлен")
}

func openStore(ctx context.Context, cfg *config.Config, logg *logger.Logger) (store.Store, error) {
	if cfg.UsePostgres() {
		pg, err := db.InitDB(ctx, cfg.DatabaseURL, logg)
		if err != nil {
			return nil, err
		}
		return pg, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.BoltPath), 0o755); err != nil {
		return nil, err
	}
	bs, err := boltstore.Open(cfg.BoltPath)
	if err != nil {
		return nil, err
	}
	logg.Info("Открыто встроенное хранилище", "path", cfg.BoltPath)
	return bs, nil
}

func storeKind(cfg *config.Config) string {
	if cfg.UsePostgres() {
		return "postgres"
	}
	return "bolt"
}

// buildNotifier собирает доступные каналы; без каналов уведомления только пишутся в лог.
func buildNotifier(cfg *config.Config, bot *telegram_api.BotClient, logg *logger.Logger) notify.Notifier {
	var channels notify.Multi

	if cfg.SendGridAPIKey != "" && cfg.MailFrom != "" && cfg.RecipientEmail != "" {
		email, err := notify.NewEmailNotifier(notify.EmailConfig{
			APIKey:   cfg.SendGridAPIKey,
			BaseURL:  cfg.SendGridBaseURL,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
			To:       cfg.RecipientEmail,
		})
		if err != nil {
			logg.Error("Email-уведомления отключены", "error", err)
		} else {
			channels = append(channels, email)
		}
	}

	if bot != nil {
		tg, err := notify.NewTelegramNotifier(bot, cfg.OwnerChatID)
		if err != nil {
			logg.Error("Telegram-уведомления отключены", "error", err)
		} else {
			channels = append(channels, tg)
		}
	}

	if len(channels) == 0 {
		logg.Warn("Нет каналов уведомлений, уведомления будут только в логе")
		return notify.LogNotifier{Log: logg}
	}
	return channels
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/api"
	"github.com/annel0/voxel-engine/internal/app"
	"github.com/annel0/voxel-engine/internal/auth"
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/getsentry/sentry-go"
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

const version = "v0.3.0"

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	if err := run(*configPath); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = config.Default()
	}

	logging.SetConsoleLevel(logging.ParseLevel(cfg.Debug.GetLogLevel()))
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🎮 Запуск voxel-engine %s", version)

	// === Отладка и наблюдаемость ===
	if dsn := cfg.Debug.GetSentryDSN(); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Release: version}); err != nil {
			return fmt.Errorf("ошибка инициализации Sentry: %w", err)
		}
		defer sentry.Flush(5 * time.Second)
		logging.Info("🛰️ Sentry включён")
	}

	if cfg.Debug.Statsview {
		// Настройки задаются до statsview.New()
		viewer.SetConfiguration(viewer.WithTheme(viewer.ThemeWesteros), viewer.WithAddr(cfg.Debug.GetStatsviewAddr()))
		mgr := statsview.New()
		go mgr.Start()
		defer mgr.Stop()
		logging.Info("📈 Statsview: http://%s/debug/statsview", cfg.Debug.GetStatsviewAddr())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug.OTel {
		shutdown, err := observability.InitTelemetry(ctx, "voxel-engine", version)
		if err != nil {
			return fmt.Errorf("ошибка инициализации OpenTelemetry: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
			}
		}()
	}

	// === Мир ===
	defs := block.DefaultModelDefs()
	if path := cfg.World.GetModelDefs(); path != "" {
		if defs, err = block.LoadModelDefs(path); err != nil {
			return err
		}
		logging.Info("🧱 Загружено моделей блоков: %d", defs.Len())
	}

	store, err := storage.NewWorldStorage(cfg.Storage.GetDataDir())
	if err != nil {
		return err
	}
	defer store.Close()

	seed, hasSeed := cfg.World.GetSeed()
	w, err := app.OpenWorld(store, cfg.World.GetSavePath(), seed, hasSeed, defs)
	if err != nil {
		return err
	}
	w.SetRenderDistance(cfg.World.GetRenderDistance())
	w.Subscribe(func(e world.Event) {
		if be, ok := e.(world.BlockEvent); ok {
			logging.Trace("Блок %v: %s → %s", be.Position, be.Old, be.New)
		}
	})

	engine := app.NewEngine(app.Options{
		World:         w,
		Workers:       cfg.World.GetWorkers(),
		TickRate:      cfg.Server.GetTickRate(),
		Store:         store,
		SnapshotPath:  cfg.World.GetSavePath(),
		AutosaveEvery: cfg.Server.GetAutosaveInterval(),
	})

	// === Админ-консоль ===
	if secret := cfg.Admin.GetJWTSecret(); secret != "" {
		if err := auth.SetJWTSecret(secret); err != nil {
			return fmt.Errorf("некорректный JWT секрет: %w", err)
		}
	}
	users := auth.NewMemoryUserRepo()
	password, err := auth.EnsureAdmin(users, cfg.Admin.GetUsername(), cfg.Admin.GetPasswordHash())
	if err != nil {
		return err
	}
	if password != "" {
		logging.Warn("🔑 Хеш пароля администратора не задан, временный пароль %s: %s", cfg.Admin.GetUsername(), password)
	}

	console := api.NewRestServer(api.Config{
		Addr:     fmt.Sprintf(":%d", cfg.Server.GetAdminPort()),
		Engine:   engine,
		UserRepo: users,
	})
	go func() {
		if err := console.Start(); err != nil {
			logging.Error("❌ Ошибка админ-консоли: %v", err)
			stop()
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := console.Stop(shutdownCtx); err != nil {
			logging.Warn("⚠️ Ошибка остановки админ-консоли: %v", err)
		}
	}()

	logging.Info("✅ Сервер запущен. Нажмите Ctrl+C для остановки")
	if err := engine.Run(ctx); err != nil {
		sentry.CaptureException(err)
		return err
	}
	logging.Info("👋 Сервер остановлен")
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/llehouerou/wavecast/internal/albumart"
	"github.com/llehouerou/wavecast/internal/catalog"
	"github.com/llehouerou/wavecast/internal/config"
	"github.com/llehouerou/wavecast/internal/dlna"
	"github.com/llehouerou/wavecast/internal/httpapi"
	"github.com/llehouerou/wavecast/internal/httpclient"
	"github.com/llehouerou/wavecast/internal/inhibit"
	"github.com/llehouerou/wavecast/internal/mpris"
	"github.com/llehouerou/wavecast/internal/notify"
	"github.com/llehouerou/wavecast/internal/player"
	"github.com/llehouerou/wavecast/internal/service"
	"github.com/llehouerou/wavecast/internal/state"
	"github.com/llehouerou/wavecast/internal/stderr"
)

// AppOptions is the whole dependency graph of the daemon.
var AppOptions = fx.Options(
	fx.Provide(
		config.Load,
		newStderrCapture,
		newLogger,
		httpclient.New,
		newState,
		newCatalog,
		newArtCache,
		newDiskCache,
		player.NewFocusManager,
		newLocalPlayer,
		newNotifier,
		newCastConnector,
		newService,
	),
	fx.Invoke(
		forwardStderr,
		registerService,
		registerMPRIS,
		registerHTTP,
	),
)

func main() {
	app := fx.New(
		AppOptions,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "wavecast:", err)
		os.Exit(1)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "wavecast:", err)
		os.Exit(1)
	}
}

// newStderrCapture redirects native library output before anything opens
// the audio device.
func newStderrCapture(lc fx.Lifecycle) *stderr.Capture {
	c, err := stderr.Start()
	if err != nil {
		fmt.Fprintln(os.Stderr, "wavecast: stderr capture:", err)
	}
	lc.Append(fx.StopHook(c.Stop))
	return c
}

// newLogger writes to the real stderr so captured output is not looped
// back through the capture.
func newLogger(cfg *config.Config, capture *stderr.Capture) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.GetLogLevel())
	if err != nil {
		return nil, err
	}

	ec := zap.NewProductionEncoderConfig()
	var enc zapcore.Encoder
	if cfg.GetLogFormat() == "json" {
		enc = zapcore.NewJSONEncoder(ec)
	} else {
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(ec)
	}
	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(capture.Original())), level)
	return zap.New(core, zap.AddCaller()), nil
}

func forwardStderr(capture *stderr.Capture, logger *zap.Logger) {
	capture.Forward(logger)
}

func newState(lc fx.Lifecycle, cfg *config.Config) (*state.Manager, error) {
	st, err := state.Open(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	lc.Append(fx.StopHook(st.Close))
	return st, nil
}

func newCatalog(cfg *config.Config, client *retryablehttp.Client, st *state.Manager, logger *zap.Logger) *catalog.Catalog {
	return catalog.New(catalog.NewRemoteSource(cfg.GetCatalogURL(), client), st, logger)
}

func newArtCache(cfg *config.Config, client *retryablehttp.Client, logger *zap.Logger) *albumart.Cache {
	return albumart.New(albumart.NewHTTPFetcher(client), albumart.Config{MaxBytes: cfg.GetArtCacheBytes()}, logger)
}

func newDiskCache(cfg *config.Config) (*albumart.DiskCache, error) {
	return albumart.NewDiskCache(cfg.Art.CacheDir)
}

func newLocalPlayer(cat *catalog.Catalog, client *retryablehttp.Client, focus *player.FocusManager, logger *zap.Logger) *player.Local {
	inh := inhibit.New("wavecast", "Playing music")
	return player.NewLocal(cat, player.StreamEngineFactory(client, logger), player.NewKeepAlive(inh.Acquire, inh.Release), focus, logger)
}

// newNotifier returns nil when notifications are disabled or the
// notification daemon cannot be reached.
func newNotifier(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) notify.Notifier {
	if !cfg.NotificationsEnabled() {
		return nil
	}
	n, err := notify.New()
	if err != nil {
		logger.Warn("notifications unavailable", zap.Error(err))
		return nil
	}
	lc.Append(fx.StopHook(n.Shutdown))
	return n
}

// newCastConnector returns nil when casting is disabled.
func newCastConnector(cfg *config.Config, logger *zap.Logger) service.CastConnector {
	if !cfg.HasCastConfig() {
		return nil
	}
	timeout := cfg.GetDiscoveryTimeout()
	return func(ctx context.Context, device string) (player.CastClient, error) {
		c, err := dlna.Connect(ctx, device, timeout, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

type serviceParams struct {
	fx.In

	Config   *config.Config
	Catalog  *catalog.Catalog
	Art      *albumart.Cache
	Disk     *albumart.DiskCache
	Local    *player.Local
	Focus    *player.FocusManager
	Notifier notify.Notifier       `optional:"true"`
	Connect  service.CastConnector `optional:"true"`
	Logger   *zap.Logger
}

func newService(p serviceParams) *service.MusicService {
	return service.New(service.Deps{
		Catalog:  p.Catalog,
		Art:      p.Art,
		Local:    p.Local,
		Notifier: p.Notifier,
		Icon:     notify.ThumbnailIcon(p.Disk, p.Logger),
		Focus:    p.Focus,
		Connect:  p.Connect,
	}, service.Config{
		StopDelay:     p.Config.GetStopDelay(),
		DefaultDevice: p.Config.Cast.Device,
	}, p.Logger)
}

func registerService(lc fx.Lifecycle, svc *service.MusicService, logger *zap.Logger) {
	// the catalog outlives the start context
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("wavecast started")
			svc.LoadCatalog(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("shutting down")
			cancel()
			return svc.Close()
		},
	})
}

func registerMPRIS(lc fx.Lifecycle, cfg *config.Config, svc *service.MusicService, disk *albumart.DiskCache, logger *zap.Logger) {
	if !cfg.MPRISEnabled() {
		return
	}
	var adapter *mpris.Adapter
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			a, err := mpris.New(svc, svc.Session(), disk, logger)
			if err != nil {
				// a missing session bus only disables the media keys
				logger.Warn("mpris unavailable", zap.Error(err))
				return nil
			}
			adapter = a
			return nil
		},
		OnStop: func(context.Context) error {
			if adapter == nil {
				return nil
			}
			return adapter.Close()
		},
	})
}

func registerHTTP(lc fx.Lifecycle, cfg *config.Config, svc *service.MusicService, logger *zap.Logger) {
	if !cfg.HTTPEnabled() {
		return
	}
	if cfg.GetLogLevel() != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := httpapi.NewServer(cfg.GetListen(), svc, logger)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			srv.Start()
			return nil
		},
		OnStop: srv.Shutdown,
	})
}

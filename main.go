package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caseforge/commerce"
	"caseforge/config"
	"caseforge/core"
	"caseforge/devices"
	"caseforge/editor"
	"caseforge/export"
	"caseforge/handlers/api/assets"
	"caseforge/handlers/api/deviceconfigs"
	"caseforge/handlers/api/designs"
	"caseforge/handlers/api/lineitems"
	"caseforge/handlers/api/orders"
	"caseforge/handlers/api/sessions"
	"caseforge/handlers/auth"
	"caseforge/handlers/events"
	authMiddleware "caseforge/middleware"
	"caseforge/reconciler"
	"caseforge/stores"
	"caseforge/uploads"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/engine.io/v2/utils"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type app struct {
	store    core.BlobStore
	sessions *editor.Manager
	pipeline *export.Pipeline
	uploads  *uploads.Service
	rec      *reconciler.Reconciler
	orders   *commerce.Client
	notify   sessions.Notifier
}

func setupRouter(a *app) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Token", "session", "Origin", "Host", "Connection", "Accept-Encoding", "Accept-Language", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Route("/api/v2", func(r chi.Router) {
		r.Get("/device-configs/detect", deviceconfigs.HandleDetect())
		r.Get("/device-configs/{modelID}", deviceconfigs.HandleGet())

		r.Route("/design-sessions", func(r chi.Router) {
			r.Post("/", sessions.HandleCreate(a.sessions))
			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", sessions.HandleGet(a.sessions))
				r.Delete("/", sessions.HandleClose(a.sessions))
				r.Post("/assets", sessions.HandleAddAsset(a.sessions))
				r.Post("/layers", sessions.HandleAddLayer(a.sessions, a.notify))
				r.Patch("/layers/{layerID}", sessions.HandleUpdateLayer(a.sessions, a.notify))
				r.Delete("/layers/{layerID}", sessions.HandleRemoveLayer(a.sessions, a.notify))
				r.Post("/layers/{layerID}/reorder", sessions.HandleReorderLayer(a.sessions, a.notify))
				r.Post("/background", sessions.HandleSetBackground(a.sessions, a.notify))
				r.Post("/undo", sessions.HandleUndo(a.sessions, a.notify))
				r.Post("/redo", sessions.HandleRedo(a.sessions, a.notify))
				r.Get("/preview", sessions.HandlePreview(a.sessions, a.pipeline))
				r.Post("/export", sessions.HandleExport(a.sessions, a.pipeline, a.uploads, a.rec))
			})
		})

		r.Post("/design-upload", designs.HandleUpload(a.uploads))
		r.Post("/design-cleanup", designs.HandleCleanup(a.rec))
		r.Post("/line-item-metadata", lineitems.HandleUpdateMetadata(a.uploads))

		r.Post("/events/orders", events.HandleOrderEvent(a.rec))

		// Operator surface, protected by JWT auth.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)
			r.Get("/orders/{orderID}/designs", orders.HandleGetOrderDesigns(a.orders))
		})
	})

	// Stored rasters for backends whose URLs point back at this service.
	r.Get("/assets/{key}", assets.HandleGet(a.store))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", auth.HandleLogin)
		r.Get("/callback", auth.HandleCallback)
	})

	return r
}

// roomNotifier rebroadcasts session mutations to the socket.io room keyed by
// session id, so every tab of the same editing session stays in sync.
type roomNotifier struct {
	io *socketio.Server
}

func (n *roomNotifier) Broadcast(sessionID, event string, payload any) {
	n.io.To(socketio.Room(sessionID)).Emit(event, payload)
}

func setupSocketIO(mgr *editor.Manager) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(5000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	opts.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})
	ioo := socketio.NewServer(nil, opts)

	ioo.On("connection", func(clients ...any) {
		socket := clients[0].(*socketio.Socket)
		me := socket.Id()

		socket.On("join-session", func(datas ...any) {
			sessionID := datas[0].(string)
			if _, err := mgr.Get(sessionID); err != nil {
				socket.Emit("session-error", "session not found")
				return
			}
			room := socketio.Room(sessionID)
			utils.Log().Printf("Socket %v joined session %v\n", me, sessionID)
			socket.Join(room)
			s, err := mgr.Get(sessionID)
			if err == nil {
				socket.Emit("session-state", s.Document())
			}
		})

		// Cursor/drag positions are volatile; dropping frames is fine.
		socket.On("editor-volatile-broadcast", func(datas ...any) {
			sessionID := datas[0].(string)
			socket.Volatile().Broadcast().To(socketio.Room(sessionID)).Emit("editor-broadcast", datas[1:]...)
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
			socket.Disconnect(true)
		})
	})
	return ioo
}

// Abandoned editor tabs leave sessions behind; sweep them so their decoded
// assets do not accumulate for the life of the process.
const (
	sessionMaxIdle       = 30 * time.Minute
	sessionSweepInterval = 5 * time.Minute
)

func sweepIdleSessions(mgr *editor.Manager) {
	for range time.Tick(sessionSweepInterval) {
		if n := mgr.EvictIdle(sessionMaxIdle); n > 0 {
			logrus.WithField("count", n).Info("evicted idle design sessions")
		}
	}
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	signalC := make(chan os.Signal, 1)

	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range signalC {
			switch s {
			case os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	logrus.Info("Shutting down...")
	ioo.Close(nil)
	os.Exit(0)
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", "", "The address to listen on (overrides config).")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if *listenAddress != "" {
		cfg.ListenAddr = *listenAddress
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid config: %v", err)
	}

	// A malformed device table must never surface mid-edit.
	if err := devices.Validate(); err != nil {
		logrus.Fatalf("Device registry validation failed: %v", err)
	}

	auth.InitAuth()

	store := stores.GetStore(stores.Options{
		Type:           cfg.StorageType,
		BasePath:       cfg.LocalStorePath,
		DataSourceName: cfg.SQLitePath,
		S3Bucket:       cfg.S3Bucket,
		PublicBaseURL:  cfg.PublicBaseURL,
	})
	commerceClient := commerce.NewClient(cfg.CommerceBaseURL, cfg.CommerceAPIKey, cfg.CommerceTimeout)

	mgr := editor.NewManager()
	go sweepIdleSessions(mgr)
	ioo := setupSocketIO(mgr)

	a := &app{
		store:    store,
		sessions: mgr,
		pipeline: export.NewPipeline(export.NewHTTPOverlayProvider(cfg.OverlayTimeout)),
		uploads:  uploads.NewService(store, commerceClient),
		rec:      reconciler.New(store),
		orders:   commerceClient,
		notify:   &roomNotifier{io: ioo},
	}

	r := setupRouter(a)
	r.Mount("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", cfg.ListenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}

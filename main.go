package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"roomdrop-server/core"
	"roomdrop-server/handlers/api/files"
	"roomdrop-server/handlers/api/roomsapi"
	"roomdrop-server/handlers/websocket"
	"roomdrop-server/rooms"
	"roomdrop-server/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// The original reference deployment allows uploads up to 50 MB.
const defaultMaxUploadBytes = 50 << 20

func maxUploadBytes() int64 {
	raw := os.Getenv("MAX_UPLOAD_BYTES")
	if raw == "" {
		return defaultMaxUploadBytes
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		logrus.WithField("MAX_UPLOAD_BYTES", raw).Warn("Invalid max upload size, using default")
		return defaultMaxUploadBytes
	}
	return n
}

func setupRouter(fileStore core.FileStore, coord *rooms.Coordinator, allowedOrigin string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	corsOptions := cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "" {
				return false
			}
			if origin == allowedOrigin {
				return true
			}

			parsed, err := url.Parse(origin)
			if err != nil {
				return false
			}

			if parsed.Scheme == "http" || parsed.Scheme == "https" {
				// Hostname() strips the brackets from IPv6 literals.
				switch parsed.Hostname() {
				case "localhost", "127.0.0.1", "::1":
					return true
				}
			}

			return false
		},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	r.Use(cors.Handler(corsOptions))

	r.Get("/download/{storedName}", files.HandleDownload(fileStore))
	r.Get("/uploads/{storedName}", files.HandleServe(fileStore))
	r.Get("/api/rooms", roomsapi.HandleList(coord))

	if dist := os.Getenv("FRONTEND_DIST"); dist != "" {
		r.NotFound(handleUI(dist))
		logrus.WithField("dist", dist).Info("Serving frontend assets")
	}

	return r
}

// handleUI serves the built frontend from dist, falling back to
// index.html for client-side routes.
func handleUI(dist string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dist))

	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dist, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dist, "index.html"))
	}
}

func waitForShutdown(ioo *socketio.Server) {
	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
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
	logLevel := flag.String("loglevel", "info", "Set the logging level: debug, info, warn, error, fatal, panic")
	listenAddr := flag.String("listen", ":5000", "Set the server listen address")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}
	logrus.SetLevel(level)

	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found")
	}

	allowedOrigin := os.Getenv("FRONTEND_URL")
	maxUpload := maxUploadBytes()

	fileStore := stores.GetStore()
	registry := rooms.NewRegistry()

	// The socket.io buffer must admit the largest allowed upload plus
	// framing overhead, or oversized payloads die in the transport
	// before the coordinator can reject them cleanly.
	ioo := websocket.NewServer(allowedOrigin, maxUpload+1<<20)
	coord := rooms.NewCoordinator(registry, fileStore, websocket.NewBroadcaster(ioo), maxUpload)
	websocket.RegisterHandlers(ioo, coord)

	r := setupRouter(fileStore, coord, allowedOrigin)
	r.Handle("/socket.io/", ioo.ServeHandler(nil))

	logrus.WithField("addr", *listenAddr).Info("starting server")
	go func() {
		if err := http.ListenAndServe(*listenAddr, r); err != nil {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(ioo)
}

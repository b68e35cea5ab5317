package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ByLCY/memecanvas/feed"
	"github.com/ByLCY/memecanvas/feed/memory"
	"github.com/ByLCY/memecanvas/feed/s3sink"
	"github.com/ByLCY/memecanvas/feed/sqlite"
	"github.com/ByLCY/memecanvas/handlers"
	canvasrenderer "github.com/ByLCY/memecanvas/renderer/canvas"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	templateDir := flag.String("templates", ".", "Directory containing templates/.")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	secret := []byte(os.Getenv("JWT_SECRET"))
	if len(secret) == 0 {
		logrus.Warn("JWT_SECRET is not set, posting and upvoting are disabled")
	}

	ctx := context.Background()
	store, closeStore := getStore()
	defer closeStore()

	svc := feed.NewService(store, getSink(ctx), feed.Options{
		Seeds: os.Getenv("MEMEFEED_SEED") != "false",
	})

	r := handlers.NewRouter(handlers.Config{
		Feed:        svc,
		Renderer:    canvasrenderer.NewRenderer(),
		TemplateDir: *templateDir,
		JWTSecret:   secret,
	})

	srv := &http.Server{Addr: *listenAddress, Handler: r}
	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	waitForShutdown(srv)
}

// getStore picks the meme store from STORAGE_TYPE.
func getStore() (feed.Store, func()) {
	storageType := os.Getenv("STORAGE_TYPE")
	fields := logrus.Fields{"storageType": storageType}

	switch storageType {
	case "sqlite":
		dataSourceName := os.Getenv("DATA_SOURCE_NAME")
		if dataSourceName == "" {
			dataSourceName = "memefeed.db"
		}
		fields["dataSourceName"] = dataSourceName
		store, err := sqlite.NewStore(dataSourceName)
		if err != nil {
			logrus.WithFields(fields).Fatal(err)
		}
		logrus.WithFields(fields).Info("Use storage")
		return store, func() { store.Close() }
	default:
		fields["storageType"] = "in-memory"
		logrus.WithFields(fields).Info("Use storage")
		return memory.NewStore(), func() {}
	}
}

// getSink uploads images to S3 when S3_BUCKET_NAME is set, otherwise inlines them.
func getSink(ctx context.Context) feed.ImageSink {
	bucket := os.Getenv("S3_BUCKET_NAME")
	if bucket == "" {
		return feed.DataURLSink{}
	}
	sink, err := s3sink.New(ctx, bucket, os.Getenv("S3_PREFIX"))
	if err != nil {
		logrus.WithField("bucketName", bucket).Fatal(err)
	}
	logrus.WithField("bucketName", bucket).Info("Use S3 image sink")
	return sink
}

func waitForShutdown(srv *http.Server) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-signals

	logrus.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
}

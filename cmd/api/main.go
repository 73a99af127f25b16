package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kauth.org/internal/httpapi"
	"kauth.org/internal/kakao"
	"kauth.org/internal/member"
	"kauth.org/internal/obs"
	"kauth.org/internal/social"
	"kauth.org/internal/token"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("KAUTH_AUTH_SECRET")
	if secret == "" {
		log.Fatal("KAUTH_AUTH_SECRET is required")
	}
	issuer, err := token.NewIssuer(secret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	var db *sql.DB
	dsn := os.Getenv("KAUTH_PG_DSN")
	if dsn == "" {
		log.Fatal("KAUTH_PG_DSN is required")
	}
	db, err = sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Explicit wiring: store, hasher and signer are assembled once here and
	// handed to their consumers as constructor arguments.
	members := member.NewService(member.NewPGStore(db))

	var kakaoOpts []kakao.Option
	if base := os.Getenv("KAUTH_KAKAO_BASE_URL"); base != "" {
		kakaoOpts = append(kakaoOpts, kakao.WithBaseURL(base))
	}
	resolver := kakao.NewResolver(kakaoOpts...)

	socialSvc := social.NewService(resolver, members, issuer)

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, socialSvc, members, issuer)

	addr := os.Getenv("KAUTH_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting kauth-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "busbooking/internal/config"
	router "busbooking/internal/http"
	"busbooking/internal/http/handlers"
	"busbooking/internal/repositories"
	"busbooking/internal/services"
	"busbooking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to YAML config file (falls back to CONFIG_FILE)")
	addr := pflag.String("addr", "", "listen address, overrides app_addr")
	migrate := pflag.Bool("migrate", true, "create missing tables on startup")
	pflag.Parse()

	env, err := intconfig.LoadEnv(*configFile)
	if err != nil {
		utils.Logger().WithError(err).Fatal("load config")
	}
	if *addr != "" {
		env.AppAddr = *addr
	}
	utils.ConfigureLogger(env.LogLevel, env.LogFormat, os.Stdout)
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	loc, err := env.Location()
	if err != nil {
		utils.Logger().WithError(err).Fatal("resolve timezone")
	}

	db, err := intconfig.ConnectDB(env)
	if err != nil {
		utils.Logger().WithError(err).Fatal("connect database")
	}
	defer intconfig.CloseDB()

	if *migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := intconfig.EnsureSchema(ctx, db)
		cancel()
		if err != nil {
			utils.Logger().WithError(err).Fatal("ensure schema")
		}
	}

	store := services.NewSQLStore(db)
	buses := repositories.BusRepo{DB: db}
	routes := repositories.RouteRepo{DB: db}
	users := repositories.UserRepo{DB: db}
	seats := services.SeatInventory{Buses: buses, Store: store, Timeout: env.StoreTimeout}

	handler := &handlers.Handler{
		Bookings: services.BookingService{
			Store:     store,
			Seats:     seats,
			Buses:     buses,
			Routes:    routes,
			Discounts: repositories.DiscountRepo{DB: db},
			Loyalty:   users,
			Location:  loc,
			Timeout:   env.StoreTimeout,
		},
		Seats: seats,
		Tracking: services.TrackingService{
			Store:     store,
			Buses:     buses,
			Routes:    routes,
			Locations: buses,
			Location:  loc,
			Freshness: env.LocationFreshness,
			Timeout:   env.StoreTimeout,
		},
		Docs:   services.DocsService{Store: store, Buses: buses, Routes: routes, Timeout: env.StoreTimeout},
		Auth:   services.AuthService{Users: users, Secret: []byte(env.JWTSecret), Timeout: env.StoreTimeout},
		DB:     db,
		Schema: intconfig.SchemaCheck{DB: db},
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           router.NewRouter(env, handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		utils.LogEvent("", "server", "start", "listening on "+env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger().WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	utils.LogEvent("", "server", "shutdown", "shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger().WithError(err).Error("graceful shutdown failed")
		return
	}
	utils.LogEvent("", "server", "shutdown", "server stopped cleanly")
}

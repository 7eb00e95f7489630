// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/Alveaenerle/online-gaming-service-sub000/internal/auth"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/cache"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/config"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/database"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/game"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/handlers"
	"github.com/Alveaenerle/online-gaming-service-sub000/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()
	defer database.DB.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	store, err := cache.Connect()
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	srv := handlers.NewServer(logger)
	srv.Engine = game.NewEngine(config.FromEnv(), game.Deps{
		Store:       store,
		Rooms:       store,
		Broadcaster: srv,
		Finish:      store,
		Moves:       store,
		Results:     database.NewResultStore(),
		Logger:      logger,
	})

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", handlers.CreateUserHandler)
	mux.HandleFunc("/user/login", handlers.LoginHandler)

	// room lifecycle
	mux.Handle("/room/create", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.CreateRoomHandler(logger, store),
	)))
	mux.Handle("/room/start", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.StartGameHandler(logger, srv),
	)))
	mux.Handle("/room/force-end", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.ForceEndHandler(logger, srv),
	)))

	// game websocket
	mux.Handle("/game/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.GameWSHandler(logger, srv),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

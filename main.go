package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"selah/auth"
	"selah/common"
	"selah/config"
	"selah/database"
	"selah/posts"
	"selah/reactions"
)

func main() {
	config.Init()
	common.InitLogger(config.App.LogLevel)

	db := common.ConnectDb(config.App.DBFile)
	if db == nil {
		log.Fatal("Failed to connect to database")
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	if config.App.SessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable not set")
	}
	if config.App.TokenSecret == "" {
		log.Fatal("TOKEN_SECRET environment variable not set")
	}

	router := gin.Default()

	store := cookie.NewStore([]byte(config.App.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})
	router.Use(sessions.Sessions("selah-session", store))

	authModule := auth.NewAuthModule(db, config.App.TokenSecret)
	authModule.RegisterRoutes(router)

	resolver := auth.NewResolver(db, authModule.Oracle())
	admins := auth.AnyOf(
		auth.NewEmailAllowlist(config.App.AdminEmail),
		auth.RoleClaim{},
	)

	postsModule := posts.NewPostsModule(db, resolver, admins)
	postsModule.RegisterRoutes(router)

	reactionsModule := reactions.NewReactionsModule(db, resolver)
	reactionsModule.RegisterRoutes(router)

	common.Logger.Info("starting server", zap.String("port", config.App.Port))
	if err := router.Run(":" + config.App.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

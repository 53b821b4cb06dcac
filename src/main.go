package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"opsdesk/src/boot"
	"opsdesk/src/config"
	"opsdesk/src/lib"
	"opsdesk/src/middlewares"
	"os"
	"os/signal"
	"path"
	"regexp"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = config.MAX_UPLOAD_SIZE
	router.Use(middlewares.SecureHeaders)
	router.Use(corsMiddleware())
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.Use(middlewares.Maintenance)

	publicRoutes(router)

	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware)
	{
		authorized = authHandlers(authorized)
		authorized = bugHandlers(authorized)
		authorized = projectHandlers(authorized)
		authorized = employeeHandlers(authorized)
		authorized = assetHandlers(authorized)
		authorized = inventoryHandlers(authorized)
	}
	return router
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func publicRoutes(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/auth/login", authLogin)
	return apiv1
}

func corsMiddleware() gin.HandlerFunc {
	if config.API_ENV == "local" {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		if config.APP_HOST == "" {
			return false
		}
		match, _ := regexp.MatchString(regexp.QuoteMeta(config.APP_HOST), origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func initLogger() {
	cwd, _ := os.Getwd()
	logDir := path.Join(cwd, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Could not create log directory: %s\n", err.Error())
		return
	}
	gin.ForceConsoleColor()

	f, _ := os.Create(path.Join(logDir, "api.log"))
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   path.Join(logDir, "server.log"),
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	if config.API_ENV == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env loaded: %s\n", err.Error())
		}
	}
	initLogger()
	registerValidators()

	boot.InitDb()
	boot.InitScheduler()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go boot.InitBroker(ctx)

	router := setupRouter()

	srv := &http.Server{
		Addr:    ":" + config.GetPort(),
		Handler: router,
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %s\n", err.Error())
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Printf("Error during shutdown: %s\n", err.Error())
	}
	boot.StopScheduler()
	lib.KafkaClose()
}

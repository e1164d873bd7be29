package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/common-nighthawk/go-figure"
	"github.com/gin-gonic/gin"
	"github.com/makkotwal/venus-auth/authflow"
	"github.com/makkotwal/venus-auth/authflow/callback"
	"github.com/makkotwal/venus-auth/authflow/challengestore"
	"github.com/makkotwal/venus-auth/backend"
	"github.com/makkotwal/venus-auth/events"
	"github.com/makkotwal/venus-auth/guard/ginmw"
	"github.com/makkotwal/venus-auth/internal/config"
	"github.com/makkotwal/venus-auth/session"
	"github.com/makkotwal/venus-auth/session/recordstore"
	"github.com/makkotwal/venus-auth/ssoprovider"
	"github.com/makkotwal/venus-auth/token/sessionjwt"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	handler, err := buildHandler(c, logger)
	if err != nil {
		return err
	}

	server := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(server)
	waitForStopSignal()
	returnError = shutdown(server)
	return returnError
}

func buildHandler(c config.Config, logger zerolog.Logger) (http.Handler, error) {
	codec, err := sessionjwt.NewCodec(c.GetSessionSecret())
	if err != nil {
		return nil, err
	}

	var records recordstore.Store = recordstore.NewMemoryStore()
	if addr := c.GetRedisAddr(); addr != "" {
		records = recordstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
		logger.Info().Str("addr", addr).Msg("using redis session record store")
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	publisher := events.NewWatermillPublisher(pubSub)

	backendClient := backend.New(c.GetBackendURL())
	resolver := ssoprovider.New(c.GetSSOProviderURL())

	store, err := session.NewStore(records, codec, backendClient,
		session.WithEventPublisher(publisher),
		session.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	store.Bootstrap(context.Background())

	controller, err := authflow.NewController(backendClient, challengestore.NewInMemoryRepo(), store, c,
		authflow.WithNotifier(authflow.LogNotifier{Log: logger}),
		authflow.WithControllerLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	processor, err := callback.NewProcessor(resolver, backendClient, store,
		c.GetProtectedPath(), c.GetLandingPath(),
		callback.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return buildRouter(c, store, controller, processor), nil
}

func buildRouter(c config.Config, store *session.Store, controller *authflow.Controller, processor *callback.Processor) *gin.Engine {
	if c.GetEnv() != "DEV" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	// The controller models a single interactive sign-in and is not safe
	// for concurrent use; serialize the flow endpoints behind one mutex.
	var flowMu sync.Mutex

	router.POST("/api/login/credentials", func(ctx *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Role     string `json:"role"`
		}
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		flowMu.Lock()
		view, err := controller.SubmitIdentity(ctx.Request.Context(), authflow.Credentials{
			Handle:  req.Username,
			Contact: req.Email,
			Role:    req.Role,
		})
		flowMu.Unlock()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"qr_code_url": view.QRCodeURL, "secret": view.SharedSecret})
	})

	router.POST("/api/login/otp", func(ctx *gin.Context) {
		var req struct {
			OTPCode string `json:"otp_code"`
		}
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		flowMu.Lock()
		id, err := controller.SubmitPasscode(ctx.Request.Context(), req.OTPCode)
		flowMu.Unlock()
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, id)
	})

	router.POST("/api/login/abandon", func(ctx *gin.Context) {
		flowMu.Lock()
		controller.Abandon()
		flowMu.Unlock()
		ctx.Status(http.StatusNoContent)
	})

	router.GET("/api/login/sso", func(ctx *gin.Context) {
		ctx.Redirect(http.StatusFound, controller.SSOLoginURL())
	})

	// The provider returns the session id in the URL fragment, which never
	// reaches the server; the landing page forwards it here.
	router.GET("/auth/callback", func(ctx *gin.Context) {
		result, _ := processor.ProcessFragment(ctx.Request.Context(), ctx.Query("fragment"))
		ctx.Redirect(http.StatusFound, result.RedirectTo)
	})

	router.POST("/api/logout", func(ctx *gin.Context) {
		store.SignOut(ctx.Request.Context())
		ctx.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	})

	router.GET(c.GetProtectedPath(), ginmw.Protect(store, c.GetLandingPath()), func(ctx *gin.Context) {
		id, _ := ginmw.GetIdentity(ctx)
		ctx.JSON(http.StatusOK, gin.H{"user": id})
	})

	return router
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

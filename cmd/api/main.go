package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"classcall/internal/auth"
	"classcall/internal/classroom"
	"classcall/internal/config"
	"classcall/internal/export"
	"classcall/internal/httpmiddleware"
	"classcall/internal/identity"
	"classcall/internal/queue"
	"classcall/internal/store"
)

var admissionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "classcall_admission_outcomes_total",
	Help: "Admission attempts by outcome.",
}, []string{"outcome"})

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	repo := classroom.NewRepository(db.Client)
	classes := classroom.NewService(repo, cfg.AttendanceWindow)
	users := identity.NewRepository(db.Client)

	var q queue.Queue
	var states identity.StateStore
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
		states = identity.NewMemoryStateStore()
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classcall:admissions")
		states = identity.NewRedisStateStore(redisClient.Client)
	}
	google := identity.NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, states)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.GET("/auth/google", func(c *gin.Context) {
		returnTo := c.Query("return_to")
		if !strings.HasPrefix(returnTo, "/") {
			returnTo = "/"
		}
		url, err := google.AuthURL(c.Request.Context(), returnTo)
		if err != nil {
			log.Printf("oauth start failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login temporarily unavailable"})
			return
		}
		c.Redirect(http.StatusFound, url)
	})

	r.GET("/auth/google/attendancecall", func(c *gin.Context) {
		if errCode := c.Query("error"); errCode != "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login cancelled"})
			return
		}
		profile, returnTo, err := google.Exchange(c.Request.Context(), c.Query("state"), c.Query("code"))
		if err != nil {
			log.Printf("oauth callback failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "login failed"})
			return
		}
		user, err := users.LookupOrCreate(c.Request.Context(), profile)
		if err != nil {
			log.Printf("user upsert failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login temporarily unavailable"})
			return
		}
		sess, err := auth.IssueSession(user.Email, user.Name, user.PictureURL, cfg.JWTIssuer, cfg.SessionSecret, cfg.SessionTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session issue failed"})
			return
		}
		c.SetCookie(auth.SessionCookie, sess.Token, int(time.Until(sess.ExpiresAt).Seconds()), "/", "", cfg.Env == "production" || cfg.Env == "prod", true)
		if returnTo == "" {
			returnTo = "/"
		}
		c.Redirect(http.StatusFound, returnTo)
	})

	authed := r.Group("/", auth.UserAuth(cfg.SessionSecret, cfg.JWTIssuer))

	authed.POST("/dashboard", func(c *gin.Context) {
		claims, _ := auth.CurrentUser(c)
		var req struct {
			ClassName string `json:"classname" form:"classname" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "classname required"})
			return
		}
		class, err := classes.CreateClass(c.Request.Context(), req.ClassName, claims.Email, time.Now())
		if err != nil {
			if errors.Is(err, classroom.ErrStoreUnavailable) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, try again"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, class)
	})

	authed.GET("/getallclasslist", func(c *gin.Context) {
		claims, _ := auth.CurrentUser(c)
		list, err := classes.ListClasses(c.Request.Context(), claims.Email)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, try again"})
			return
		}
		if list == nil {
			list = []classroom.Class{}
		}
		c.JSON(http.StatusOK, list)
	})

	authed.GET("/viewattendancelist/:classcode", func(c *gin.Context) {
		class, records, err := classes.Roster(c.Request.Context(), c.Param("classcode"))
		if err != nil {
			respondRosterError(c, err)
			return
		}
		if records == nil {
			records = []classroom.Record{}
		}
		c.JSON(http.StatusOK, gin.H{"class": class, "attendes": records})
	})

	authed.POST("/presentsir/:code", func(c *gin.Context) {
		claims, _ := auth.CurrentUser(c)
		var req struct {
			Regno string `json:"regno" form:"regno" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "regno required"})
			return
		}

		code := c.Param("code")
		now := time.Now()
		res, err := classes.Admit(c.Request.Context(), code, classroom.Attendee{Email: claims.Email, Name: claims.Name}, req.Regno, now)
		if err != nil {
			if errors.Is(err, classroom.ErrClassNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
				return
			}
			log.Printf("admit failed for %s: %v", code, err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, try again"})
			return
		}

		admissionOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		publishAdmission(ctx, q, classroom.AdmissionEvent{
			ClassCode:     code,
			AttendeeEmail: claims.Email,
			Outcome:       res.Outcome,
			OccurredAt:    now.UTC(),
		})

		switch res.Outcome {
		case classroom.Admitted:
			c.JSON(http.StatusOK, gin.H{"status": string(res.Outcome), "record": res.Record})
		default:
			c.JSON(http.StatusOK, gin.H{"status": string(res.Outcome)})
		}
	})

	authed.GET("/download/:code", func(c *gin.Context) {
		claims, _ := auth.CurrentUser(c)
		class, records, err := classes.Roster(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondRosterError(c, err)
			return
		}
		if class.OwnerEmail != claims.Email {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your class"})
			return
		}
		data, err := export.AttendanceCSV(records)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename(class.Code)+`"`)
		c.Data(http.StatusOK, export.ContentType, data)
	})

	authed.GET("/logout", func(c *gin.Context) {
		c.SetCookie(auth.SessionCookie, "", -1, "/", "", false, true)
		c.Redirect(http.StatusFound, "/")
	})

	r.StaticFile("/", "web/index.html")

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("classcall api listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}
	log.Println("server exited")
	return nil
}

func respondRosterError(c *gin.Context, err error) {
	if errors.Is(err, classroom.ErrClassNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable, try again"})
}

func publishAdmission(ctx context.Context, q queue.Queue, evt classroom.AdmissionEvent) {
	body, err := json.Marshal(evt)
	if err != nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := q.Publish(pubCtx, queue.Message{Type: "admission", Body: body}); err != nil {
		log.Printf("audit publish failed: %v", err)
	}
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

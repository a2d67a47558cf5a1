package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/NIN31/hdattendance/config"
	"github.com/NIN31/hdattendance/models"
	"github.com/NIN31/hdattendance/routes"
	"github.com/NIN31/hdattendance/services"
	"github.com/NIN31/hdattendance/utils"
)

func main() {
	configPath := pflag.String("config", "", "path to a JSON or YAML config file (overrides CONFIG_FILE)")
	pflag.Parse()

	var cfg config.AppConfig
	if *configPath != "" {
		cfg = config.LoadFrom(*configPath)
	} else {
		cfg = config.Load()
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		utils.Logger.Fatal("invalid time zone", zap.Error(err))
	}
	gate, err := services.NewAccessGate(cfg.AllowedIPs)
	if err != nil {
		utils.Logger.Fatal("invalid allow-list", zap.Error(err))
	}

	db := config.InitDatabase(cfg, &models.Attendance{}, &models.Restriction{})
	rc := utils.NewRedis(cfg)
	revoked := utils.NewFlagStore(rc, "attendance:revoked:")
	resets := utils.NewFlagStore(rc, "attendance:reset:")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	utils.StartFlagPruner(ctx, 10*time.Minute, revoked, resets)

	auth, err := services.NewAdminAuth(services.AdminAuthConfig{
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
		Secret:       cfg.SessionSecret,
		TTL:          cfg.SessionTTL(),
	}, revoked, resets)
	if err != nil {
		utils.Logger.Fatal("admin auth", zap.Error(err))
	}

	store := services.NewRecordStore(db)
	policy := services.NewCooldownPolicy(cfg.CooldownWindow())
	r, err := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Location:    loc,
		Gate:        gate,
		Submissions: services.NewSubmissionService(gate, policy, store),
		Store:       store,
		Auth:        auth,
	})
	if err != nil {
		utils.Logger.Fatal("setup router", zap.Error(err))
	}

	utils.Logger.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.Strings("allowed_ips", gate.Entries()),
		zap.Duration("cooldown", policy.Window),
		zap.String("time_zone", loc.String()),
		zap.String("db_driver", cfg.DBDriver),
		zap.Bool("redis", rc != nil),
	)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Logger.Fatal("server stopped with error", zap.Error(err))
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/poorspot/spotd/achievement"
	"github.com/poorspot/spotd/config"
	"github.com/poorspot/spotd/hub"
	"github.com/poorspot/spotd/occupancy"
	"github.com/poorspot/spotd/routes"
	"github.com/poorspot/spotd/store"
	"github.com/poorspot/spotd/utils"
)

func main() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live occupation feed",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve(cmd.Context()) },
	}
	rootCmd := &cobra.Command{
		Use:           "spotd",
		Short:         "Spot occupation sessions, history and achievements",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, &cobra.Command{
		Use:   "sync",
		Short: "Repair every user's history, points and achievements, then exit",
		RunE:  func(cmd *cobra.Command, args []string) error { return runSync(cmd.Context()) },
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "spotd: "+err.Error())
		os.Exit(1)
	}
}

func setup() config.AppConfig {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func serve(ctx context.Context) error {
	cfg := setup()
	defer func() { _ = utils.Logger.Sync() }()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	engine := achievement.Default(achievement.WithLogger(utils.Logger.Named("achievement")))

	live := hub.New(nil, utils.Logger.Named("hub"))
	reg := occupancy.NewRegistry(st, engine,
		occupancy.WithLogger(utils.Logger.Named("occupancy")),
		occupancy.WithOrphanCap(time.Duration(cfg.OrphanSessionMaxHours)*time.Hour),
		occupancy.WithNotifier(live),
		occupancy.WithNotifier(occupancy.NotifierFunc(func(occupancy.Event) {
			go utils.InvalidateByPrefix(utils.LeaderboardCachePrefix)
		})),
	)
	live.SetSnapshot(func() any { return reg.Occupations() })

	n, err := reg.RecoverOrphans(ctx)
	if err != nil {
		_ = st.Close(ctx)
		return fmt.Errorf("recover orphan sessions: %w", err)
	}
	if n > 0 {
		utils.Sugar.Infof("closed %d orphan sessions left by a previous run", n)
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	go live.Run(hubCtx)

	r := routes.SetupRouter(reg, live, cfg)

	srv := utils.NewServer(":"+cfg.AppPort, r, utils.DEFAULT_READ_TIMEOUT, utils.DEFAULT_WRITE_TIMEOUT).
		WithShutdownTimeout(time.Duration(cfg.ShutdownTimeoutSec)*time.Second).
		OnShutdown(
			reg.Drain,
			func(context.Context) error { stopHub(); return nil },
			st.Close,
			func(context.Context) error { return utils.CloseRedis() },
		)

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		utils.Sugar.Infof("Starting TLS server on port %s (graceful, store=%s)", cfg.AppPort, cfg.StoreDriver)
		return srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	}
	utils.Sugar.Infof("Starting server on port %s (graceful, store=%s)", cfg.AppPort, cfg.StoreDriver)
	return srv.ListenAndServe()
}

func openStore(ctx context.Context, cfg config.AppConfig) (store.Store, error) {
	var db *gorm.DB
	switch strings.ToLower(cfg.StoreDriver) {
	case "mysql", "postgres":
		var err error
		if db, err = config.OpenDatabase(cfg); err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
	}
	st, err := store.Open(ctx, store.Options{
		Driver:        cfg.StoreDriver,
		DataFile:      cfg.DataFile,
		DB:            db,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
		SQLitePath:    cfg.SQLitePath,
		Logger:        utils.Logger.Named("store"),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	return st, nil
}

func runSync(ctx context.Context) error {
	cfg := setup()
	defer func() { _ = utils.Logger.Sync() }()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close(ctx) }()

	ds, err := st.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	engine := achievement.Default(achievement.WithLogger(utils.Logger.Named("achievement")))
	report := engine.SyncAll(ds)
	utils.Sugar.Infow("sync finished",
		"users", report.Users,
		"reordered", report.Reordered,
		"dates_repaired", report.DatesRepaired,
		"points_repaired", report.PointsRepaired,
		"users_unlocked", report.UsersUnlocked,
		"unlocked", report.Unlocked,
	)
	if !report.Changed() {
		return nil
	}
	if err := st.Save(ctx, ds); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

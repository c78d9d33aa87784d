package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/GabrielInacior/FatecTeams-sub000/internal/config"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/logging"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/repository"
	"github.com/GabrielInacior/FatecTeams-sub000/internal/service"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
)

func main() {
	var schedule bool
	flag.BoolVar(&schedule, "schedule", false, "Keep running and sweep on SWEEP_SCHEDULE")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})

	db, err := repository.InitDB(cfg.DSN(), cfg.DBMaxOpenConns)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	userRepo := repository.NewUserRepository(db)
	invites := service.NewInviteService(
		repository.NewInviteRepository(db),
		userRepo,
		service.NewGroupService(repository.NewGroupRepository(db), userRepo),
		nil,
		cfg.InviteTTL,
	)

	sweep := func() {
		n, err := invites.ExpireStale()
		if err != nil {
			log.WithError(err).Error("invite sweep failed")
			return
		}
		log.WithField("expired", n).Info("invite sweep done")
	}

	if !schedule {
		sweep()
		return
	}

	c := cron.New()
	if err := c.AddFunc(cfg.SweepSchedule, sweep); err != nil {
		log.WithError(err).WithField("schedule", cfg.SweepSchedule).Fatal("invalid sweep schedule")
	}
	c.Start()
	log.WithField("schedule", cfg.SweepSchedule).Info("invite sweep scheduled")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	c.Stop()
}

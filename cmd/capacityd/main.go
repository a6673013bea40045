package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/waseem-amtrend/capacity/pkg/application/services"
	domainservices "github.com/waseem-amtrend/capacity/pkg/domain/services"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/config"
	"github.com/waseem-amtrend/capacity/pkg/infrastructure/epicor"
	"github.com/waseem-amtrend/capacity/pkg/interfaces/rest"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("configuration error")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	rules, err := config.LoadConversionRules(cfg.UOMRulesPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load UOM conversion rules")
	}
	reconciler, err := domainservices.NewUOMReconciler(rules)
	if err != nil {
		log.WithError(err).Fatal("invalid UOM conversion rules")
	}

	seedBOM, err := config.LoadSeedBOM(cfg.SeedBOMPath)
	if err != nil {
		log.WithError(err).Warn("seed BOM unavailable, no static fallback")
		seedBOM = nil
	} else {
		// Rule drift against the shipped BOM is worth a startup warning but
		// never blocks boot.
		for _, part := range reconciler.UnreferencedRules(seedBOM) {
			log.WithField("part", part).Warn("UOM rule references a part no assembly consumes")
		}
	}

	client, err := epicor.NewClient(epicor.Config{
		BaseURL:  cfg.EpicorBaseURL,
		Username: cfg.EpicorUsername,
		Password: cfg.EpicorPassword,
		APIKey:   cfg.EpicorAPIKey,
		Company:  cfg.EpicorCompany,
		Timeout:  cfg.EpicorTimeout,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to build Epicor client")
	}

	engineCfg := services.DefaultEngineConfig()
	engineCfg.RootRef = cfg.QuoteRef
	engineCfg.CustomerID = cfg.CustomerID
	engineCfg.SnapshotWorkers = config.Atoi(os.Getenv("SNAPSHOT_WORKERS"))
	engineCfg.JobWorkers = config.Atoi(os.Getenv("JOB_WORKERS"))
	engineCfg.MaxJobs = config.Atoi(os.Getenv("MAX_DEMAND_JOBS"))

	engine := services.NewEngine(client, reconciler, seedBOM, engineCfg, log)

	e := echo.New()
	e.HideBanner = true
	rest.RegisterRoutes(e, rest.NewHandler(engine, log))

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{
		"addr":  addr,
		"env":   cfg.Env,
		"quote": cfg.QuoteRef,
	}).Info("capacity engine listening")

	if err := e.Start(addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

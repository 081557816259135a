package main

import (
	"context"
	"flag"
	"os"
	"seiassist-backend/internal/api"
	"seiassist-backend/internal/components/telemetry"
	"seiassist-backend/internal/scrapers/sei"
	"seiassist-backend/lib/configutil"
	libtelemetry "seiassist-backend/lib/telemetry"
	"seiassist-backend/lib/util/serviceutil"
	"time"

	"github.com/gin-gonic/gin"
)

type Config struct {
	BaseUrl           string   `json:"base_url"`
	Listen            string   `json:"listen"`
	AllowOrigins      []string `json:"allow_origins"`
	CloudflareBypass  bool     `json:"cloudflare_bypass"`
	TimeoutSeconds    int      `json:"timeout_seconds"`
	RequestsPerSecond float64  `json:"requests_per_second"`
}

func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadRecursively[Config](path)
	if os.IsNotExist(err) {
		err = nil
	}
	if err != nil {
		return Config{}, err
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	return cfg, nil
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging.")
	configPath := flag.String("config", "sei.json5", "The configuration file, searched for in parent directories.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	libtelemetry.InitSlog(*verbose)
	tel, err := libtelemetry.SetupFromEnv(ctx, "sei-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	libtelemetry.InstrumentPerfStats(ctx)

	cfg, err := readConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	client, err := sei.NewClient(sei.ClientOptions{
		BaseUrl:           cfg.BaseUrl,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		CloudflareBypass:  cfg.CloudflareBypass,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Tel:               telemetry.NewSlogAPI(nil),
	})
	if err != nil {
		serviceutil.Fatal("create portal client", err)
	}

	if !*verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(client, api.Options{
		AllowOrigins: cfg.AllowOrigins,
		Tel:          telemetry.NewSlogAPI(nil),
	})

	err = serviceutil.StartHttpServer(ctx, cfg.Listen, router)
	if err != nil {
		serviceutil.Fatal("serve http", err)
	}
}

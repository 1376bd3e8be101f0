package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"portfolio/app/api"
	"portfolio/app/client/llm"
	"portfolio/app/client/voice"
	"portfolio/app/config"
	"portfolio/app/service/chat"
	"portfolio/app/service/inference"
	"portfolio/app/service/prompt"
	"portfolio/app/service/quota"
	"portfolio/app/service/quote"
	"portfolio/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, llm.NewClient)
	do.Provide(di, voice.NewClient)
	do.Provide(di, inference.New)
	do.Provide(di, prompt.New)
	do.Provide(di, quota.New)
	do.Provide(di, quote.New)
	do.Provide(di, chat.New)
	do.Provide(di, api.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go do.MustInvoke[*api.Server](di).Run(appCtx)

	<-appCtx.Done()
}

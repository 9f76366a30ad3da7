package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clbench/pkg/generator"

	"github.com/go-chi/valve"
	"github.com/joho/godotenv"
)

func main() {
	if err := checkEnv(); err != nil {
		log.Fatal(err)
	}

	v := valve.New()
	s := generator.NewServer(v)

	go func() {
		if err := s.ListenAndServe(":" + os.Getenv("CLB_GENERATOR_PORT")); err != nil {
			log.Fatal(err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Print("shutting down ...")
	v.Shutdown(10 * time.Second)
	if err := s.Shutdown(); err != nil {
		log.Println(err)
	}
	log.Println(" done!")
}

func checkEnv() error {
	godotenv.Load()

	if os.Getenv("CLB_GENERATOR_PORT") == "" {
		return errors.New("CLB_GENERATOR_PORT is not set")
	}

	return nil
}

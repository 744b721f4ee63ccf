package main

import (
	"net"
	"net/http"
	"os"
	osSignal "os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/bin-packer/internal/application"
	"github.com/eugenenazirov/bin-packer/internal/config"
)

func TestShutdownDrainsInFlightCompare(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})

	cfg, err := config.Load(nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	logger := zaptest.NewLogger(t)
	app, err := application.New(cfg, logger)
	if err != nil {
		t.Fatalf("build application: %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool

	server := app.Server()
	root := server.Handler
	server.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/compare" {
			once.Do(func() { close(started) })
			<-release
		}
		root.ServeHTTP(w, r)
		if r.URL.Path == "/api/compare" {
			finished.Store(true)
		}
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() {
		_ = server.Serve(ln)
	}()

	status := make(chan int, 1)
	go func() {
		body := strings.NewReader(`{"weights":[4,8,1,4,2,1],"bin_capacity":10,"bin_count":2}`)
		resp, err := http.Post("http://"+ln.Addr().String()+"/api/compare", "application/json", body)
		if err != nil {
			status <- 0
			return
		}
		_ = resp.Body.Close()
		status <- resp.StatusCode
	}()

	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			<-started
			ch <- syscall.SIGTERM
			time.Sleep(20 * time.Millisecond)
			close(release)
		}()
	}

	shutdown(server, 5*time.Second, logger)

	if !finished.Load() {
		t.Fatalf("expected compare request to finish before shutdown returned")
	}
	select {
	case code := <-status:
		if code != http.StatusOK {
			t.Fatalf("expected in-flight compare to succeed, got status %d", code)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected compare response after shutdown")
	}
}

func TestShutdownRunsServerHooks(t *testing.T) {
	t.Cleanup(func() {
		signalNotify = osSignal.Notify
	})
	signalNotify = func(ch chan<- os.Signal, _ ...os.Signal) {
		go func() {
			ch <- syscall.SIGINT
		}()
	}

	server := application.NewServer(config.Config{Port: "0"}, http.NotFoundHandler())
	called := make(chan struct{}, 1)
	server.RegisterOnShutdown(func() {
		called <- struct{}{}
	})

	shutdown(server, time.Millisecond, zaptest.NewLogger(t))

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatalf("expected shutdown hooks to run")
	}
}

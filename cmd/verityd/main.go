package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"google.golang.org/grpc"

	"xdao.co/verity/config"
	"xdao.co/verity/internal/logx"
	"xdao.co/verity/rpc"
)

func main() {
	fs := flag.NewFlagSet("verityd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7787", "listen address")
	configPath := fs.String("config", "", "Deployment config file (YAML or .json)")
	logLevel := fs.String("log-level", "", "debug|info|warn|error")
	verbose := fs.Bool("verbose", false, "Shorthand for --log-level debug")

	_ = fs.Parse(os.Args[1:])
	if err := logx.Configure(*logLevel, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "missing --config")
		os.Exit(2)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		logx.Errorf("load config: %v", err)
		os.Exit(2)
	}
	verifiers, err := cfg.Verifiers()
	if err != nil {
		logx.Errorf("build verifiers: %v", err)
		os.Exit(2)
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		logx.Errorf("listen: %v", err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer(grpc.UnaryInterceptor(rpc.LoggingInterceptor))
	rpc.RegisterVerificationServer(s, &rpc.Server{Verifiers: verifiers})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		logx.Infof("shutting down")
		s.GracefulStop()
	}()

	logx.Infof("verityd listening on %s (deployments=%s)", lis.Addr().String(), strings.Join(cfg.Names(), ","))
	if err := s.Serve(lis); err != nil {
		logx.Errorf("serve: %v", err)
		os.Exit(1)
	}
}

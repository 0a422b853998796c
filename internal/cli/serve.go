package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rcliao/browser-memory/internal/httpapi"
	"github.com/rcliao/browser-memory/internal/logger"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP JSON API",
		Run:   runServe,
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	log := logger.New(cfg.Logging)

	s, err := openStoreWith(cfg)
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := httpapi.NewRouter(httpapi.NewHandlers(s, log, cfg.Cleanup))
	if err := httpapi.Serve(ctx, cfg.Server.Addr, router, cfg.Server.ShutdownTimeout, log); err != nil {
		exitErr("serve", err)
	}
}

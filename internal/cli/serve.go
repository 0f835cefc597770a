package cli

import (
	"context"
	"fmt"
	"net"

	"github.com/runnerr0/tabsnap/internal/config"
	"github.com/runnerr0/tabsnap/internal/server"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	s, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := commandContext()
	defer cancel()

	srv := server.New(s.composer, c.serverConfigFor(s.cfg.Server), s.logger)

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr(), err)
	}
	return c.serve(ctx, srv, ln)
}

// serve announces the popup URL and blocks until ctx is cancelled.
func (c *ServeCommand) serve(ctx context.Context, srv *server.Server, ln net.Listener) error {
	url := "http://" + ln.Addr().String() + "/"
	fmt.Printf("Serving export popup at %s (Ctrl-C to stop)\n", url)

	if c.Open {
		if err := openURL(url); err != nil {
			fmt.Printf("Could not open browser: %v\n", err)
		}
	}
	return srv.Serve(ctx, ln)
}

// serverConfigFor applies the --port override to cfg.
func (c *ServeCommand) serverConfigFor(cfg config.ServerConfig) config.ServerConfig {
	if c.Port != 0 {
		cfg.Port = c.Port
	}
	return cfg
}

// Package server wraps http.Server with graceful shutdown, sensible timeout
// defaults, and environment-driven configuration.
//
// Basic usage:
//
//	r := relay.New()
//	r.Get("/", func(c *relay.Context) error {
//		return c.String(http.StatusOK, "hello")
//	})
//
//	srv := server.New(":8080", server.WithLogger(slog.Default()))
//	if err := srv.Start(ctx, r); err != nil {
//		log.Fatal(err)
//	}
//
// Configuration can be loaded from the environment:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//
//	srv, err := server.NewFromConfig(cfg)
//
// For coordinated lifecycles with errgroup:
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, r))
package server

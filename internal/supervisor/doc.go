// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

/*
Package supervisor provides process supervision for AgriMarket using suture v4.

Long-running components are organized into a three-layer tree:

	RootSupervisor ("agrimarket")
	├── DataSupervisor ("data-layer")
	│   └── ReloadService           price snapshot refresh (cron)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService     if NATS_EMBEDDED
	│   └── audit.Consumer          if AUDIT_ENABLED
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with suture's backoff. Failures are counted
per layer, so a misbehaving audit consumer never restarts the HTTP server.

Supervisor events are logged through sutureslog, bridged to zerolog with
logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddDataService(reloadSvc)
	tree.AddMessagingService(consumer)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)
*/
package supervisor

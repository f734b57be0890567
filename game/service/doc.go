// Package service provides the business logic layer for the falling blocks server.
//
// The service package implements:
//   - Multi-session field management
//   - Command parsing, execution and bulk execution
//   - Session lifecycle management
//   - Move history tracking and paging
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages configuration loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the engine. Each session owns one engine and therefore one Field; every
// mutation runs under the service write lock, so a Field is never touched
// by two requests at once.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	sessionInfo, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Command(ctx, sessionInfo.ID, "drop:L", false)
//
// Bulk commands stop at the first command that fails unless
// BulkOptions.ContinueOnBlocked is set, and at most engine.MaxBulkCommands
// commands run per call.
package service

// Package session keeps the falling blocks sessions of the server.
//
// Each session owns its own engine, so commands sent to one field never
// touch another. IDs are case-insensitive and may not contain path
// separators, dots or spaces. An empty ID gets a random 4-character hex one.
//
// A Manager can run purely in memory or on top of a SessionPersistence.
// FilePersistence writes one JSON document per session holding the config
// name, a copy of the config and the engine's GameState. On load the named
// config is resolved through the config manager first and the stored copy is
// used when that fails.
//
//	persistence, err := session.NewFilePersistence("sessions", configManager)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
//
//	sess, err := manager.Create("", configManager.GetDefault())
package session

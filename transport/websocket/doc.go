// Package websocket pushes field updates to browsers and other watchers.
//
// A Hub groups connections by session ID (case-insensitive). Clients connect
// with ?session=<id> and only listen; after every command, bulk command or
// reset the API server broadcasts the new GameState together with the
// rendered board text. Each message is one JSON text frame:
//
//	{"session_id":"ab12","event":"state_update","board":"...","game_state":{...}}
//
// Broadcasts are queued and never block the caller. When the queue is full
// the update is dropped and logged; a client whose own send buffer is full
// is disconnected.
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
package websocket

// Package engine provides the core logic of the falling blocks field.
//
// The engine package implements:
//   - Piece shapes as cycles of square rotation states
//   - A rectangular field of landed cells with at most one falling piece
//   - Collision-checked moves and rotations with horizontal wall kicks
//   - Text rendering and parsing of field snapshots
//   - Configuration loading (JSON or YAML) and validation
//
// Core Types:
//
// Shape is an immutable rotation cycle. Field holds landed cells and the
// active piece, and every mutator either commits a collision-free position
// or leaves the field untouched. The Engine interface, implemented by
// GameEngine, wraps a Field with a configuration, a piece catalog, status
// messages and a command history.
//
// Usage:
//
//	config, err := engine.LoadConfigByName("classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine.Apply(engine.Command{Action: engine.ActionDrop, Piece: "L"})
//	gameEngine.Apply(engine.Command{Action: engine.ActionCW})
//	fmt.Print(gameEngine.GetField().Render())
//
// Rotation:
//
// A rotation first tries the next state in place. If that collides, the
// piece is shifted sideways by +1, -1, +2, -2 and so on up to its size, and
// the first clear offset is committed. Pieces never lock on their own; a
// blocked downward move simply leaves the piece where it is.
package engine

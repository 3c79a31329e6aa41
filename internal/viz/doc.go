// Package viz shows the plate in a terminal.
//
// The package implements a Bubble Tea program around an [engine.Engine]:
//
//   - [Model]: the live view, one engine frame per tick
//   - [Canvas]: Braille canvas, eight plate pixels per cell
//   - half-block rendering, two colored plate pixels per cell
//
// # Key Bindings
//
//	Space - Pause/Resume particle motion
//	D     - Toggle vibration overlay
//	N/P   - Next/previous seed
//	R     - Random seed
//	B     - Toggle Braille mode
//	S     - Save a PNG capture
//	G     - Toggle GIF recording
//	T     - Cycle panel themes
//	?     - Show help overlay
//	Q     - Quit
//
// # Recording
//
// Captures and GIF recordings go to the capture store, one directory each,
// next to a metadata.json describing the pattern.
package viz

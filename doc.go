// Package wezterm is the rendering front end of a GPU terminal emulator.
//
// # Overview
//
// A window.TerminalWindow owns a set of tabs, each a child process on a
// pseudo terminal with its own emulator state. Painting shapes the visible
// cells, resolves every glyph through a glyphcache.GlyphCache backed by a
// single texture atlas, and hands the finished frame to a presenter.
//
// When the atlas runs out of room the window rebuilds it at the size the
// atlas asked for, drops every cached glyph and image with it, and repaints
// from scratch. The number of rebuilds per paint is bounded.
//
// # Packages
//
//   - config: settings, TOML and YAML loading, the spawned command
//   - font: font resolution, shaping and rasterization
//   - atlas: the packed texture and its sprites
//   - glyphcache: glyph and image caches over one atlas
//   - term: terminal state and the headless emulator adapter
//   - mux: tabs and the tab collection
//   - pty: native pseudo terminals (unix)
//   - render: frames, the cell renderer and presenters
//   - window: the per-window controller and its event queue
//   - overlay: blocking interactive UIs run behind a pseudo tab
//
// # Logging
//
// Nothing is logged by default. Call [SetLogger] once to enable logging for
// every package.
//
// # Threading
//
// A window and everything it owns belong to one goroutine. Pty readers and
// overlay functions run elsewhere and reach the window only through its
// event queue.
package wezterm

// Package repl runs the interactive shell.
//
// The shell mounts the router, renders every committed route through the
// screen set and dispatches each input line to the actions of the current
// screen. A few words are handled by the shell itself:
//
//   - help: list the actions of the current screen
//   - history: print previous input
//   - exit, quit: leave the shell
//
// While a route loads the shell shows a spinner instead of a screen.
package repl

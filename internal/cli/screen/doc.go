// Package screen implements the screens of the interactive shell.
//
// Each screen registers a router route, renders the committed state as
// text and exposes named actions the shell dispatches user input to.
// Screens talk to the API only through the service client.
package screen

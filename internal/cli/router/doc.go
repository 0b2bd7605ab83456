// Package router decides which screen is active.
//
// A Router holds one State at a time. Navigating to a route with an
// initializer commits the reserved Loading state, runs the initializer on
// its own goroutine and commits the result only if no newer navigation
// was issued meanwhile. Each navigation takes a ticket from a monotonic
// counter; results carrying an old ticket are discarded.
//
// Code that must not depend on the router, such as the HTTP dispatcher,
// requests navigations through a Bus.
package router

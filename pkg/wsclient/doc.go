// Package wsclient provides a single-connection WebSocket client.
//
// A Client dials one endpoint per Connect call and delivers what happens on
// the connection as events on a channel:
//   - one open event after a successful handshake
//   - one message event per inbound data frame, in arrival order
//   - at most one error event on a transport failure
//   - at most one close event when either side closes the connection
//
// The channel is closed once the session reaches the closed state. Nothing
// is retried. Dispatch drains the channel and calls a Handler sequentially,
// so handlers never run concurrently for one session.
package wsclient

// Package greeter implements the feed client behaviour on top of wsclient.
//
// For each session the greeter:
//   - sends the greeting once the handshake completes
//   - prints every inbound frame as "received: <payload>"
//   - publishes frames to the configured publisher
//   - reports transport errors without retrying
//   - keeps a session record in the configured store
package greeter

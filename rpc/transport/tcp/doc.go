// Package tcp implements the TCP socket transport of the vmIPC server and client.
// It provides the TCP-specific implementations of the base package's connector
// interfaces, see the base package for the connection handling itself.
//
// Key Components:
//
//   - clientConnector: Dials TCP endpoints with a timeout and disables Nagle's algorithm
//
//   - serverConnector: Listens on host:port and applies common.TCPConf to every accepted
//     connection (no delay, socket buffer sizes, linger)
//
// The TCP transport lets a client on another host reach the server. Prefer the unix
// transport for local clients.
package tcp

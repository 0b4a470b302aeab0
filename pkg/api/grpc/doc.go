// Package grpc exposes the feed session through the standard gRPC health service.
package grpc

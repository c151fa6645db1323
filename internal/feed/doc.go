// Package feed implements the market-data feed client.
//
// The client owns the websocket transport: dialing, keepalive pings,
// subscription bookkeeping and reconnection with exponential backoff. It
// pushes typed events (tick batches, disconnects, fatal errors) onto a
// channel so the feed library's threading model never leaks into the core;
// the ingestion task is a plain channel consumer.
package feed

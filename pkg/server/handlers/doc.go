// Package handlers contains the HTTP handlers for the metric ingestion and
// summary API. Error responses use the shared envelope from
// mercator-hq/callisto/pkg/server/types.
package handlers

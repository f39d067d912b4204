// Package sink writes generated record streams to disk as
// ThinkingEngine-compatible JSON Lines files, one file per calendar
// day.
package sink

// Package notifications delivers batch events via ntfy.
//
// The ntfy implementation publishes to the topic configured in config.toml and
// degrades to a no-op when no topic is set, so the curation driver can notify
// unconditionally. A bare topic name is published to ntfy.sh; a full URL is
// used as-is for self-hosted servers.
package notifications

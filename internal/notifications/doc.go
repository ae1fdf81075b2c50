// Package notifications delivers practice events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. Each event maps
// to a fixed title, tag set and message template so workflow code only
// supplies a Payload. The [notifications] toggles suppress whole event
// families.
package notifications

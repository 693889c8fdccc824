// Package notify implements async dispatching of outbound notifications
// (welcome mails, OTP codes, reset links, vendor decisions).
//
// # Components
//
//   - [Sink] — interface for notification consumers (channel, JSON writer, no-op).
//   - [Dispatcher] — buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event] — template name plus recipient and substitution data.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// notifications to send — that responsibility belongs to the Engine.
//
// # What this package must NOT do
//
//   - Render templates or talk to mail/SMS gateways (a caller-supplied Sink does).
//   - Import marketauth or any sibling internal package.
//   - Fail a caller operation when delivery fails.
package notify

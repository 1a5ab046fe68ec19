// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

/*
Package feed connects Civitas to its inbound collaborators.

# Venue Change Feed

Consumer reads JSON-encoded models.ChangeEvent messages from any Watermill
subscriber and hands them to the venue registry. Production uses a NATS
subscriber (NewNATSSubscriber); tests and single-process demos use the
Watermill gochannel pub/sub. The registry logic does not depend on the
transport.

Messages that cannot be decoded or applied are acked and logged so that a
single bad message cannot block the subscription.

# Event Candidate Feed

EventCandidateFeed is the read-only view of the external scheduling system.
HTTPEventFeed queries it over HTTP behind a circuit breaker and a short
result cache; StaticEventFeed serves a fixed list from a JSON file.
*/
package feed

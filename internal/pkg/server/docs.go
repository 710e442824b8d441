// Package server implements the server side of the rankstream protocol.
//
// The server performs the following steps for every Rank stream:
//  1. Assigns the stream a process-wide session id and reads the client's request id from metadata.
//  2. On the first Context, ranks the request with an empty understanding and sends version 1.
//  3. On the second Context, ranks the request with the client's understanding and sends version 2.
//  4. Schedules version 3 of the same request after a fixed delay, and stops reading Contexts.
//  5. Waits for the deferred version 3 send to finish, then ends the stream.
//
// A client that closes its side early simply ends the session. Ranking and
// send failures on versions 1 and 2 fail the stream; a failure on version 3
// is logged and the stream still ends normally, since the client may already
// have made its choice.
//
// No state is shared between sessions except the diagnostics session counter.
package server

// Package client implements the client side of the rankstream protocol.
//
// For every request the client performs the following steps:
//  1. Opens a Rank stream to the server, tagged with a fresh request id.
//  2. Concurrently with step 3, sends a first Context with an empty understanding,
//     waits a fixed delay, sends a second Context carrying the understanding, and
//     closes its sending side.
//  3. Draws a cutover deadline uniformly from a configured range and collects the
//     result sets the server pushes into a buffer keyed by version, until the
//     deadline passes or the server ends the stream.
//  4. Selects the buffered result set with the highest version, or the empty
//     result if nothing arrived in time.
//  5. Waits for the sending side to finish and drains the stream to its end.
//
// The server's final version is deliberately sent late, so whether it makes the
// cutover is a race. Both outcomes are valid.
//
// A result set counts only if the collector takes it off the stream while the
// cutover has not fired. When a result set and the cutover are ready at the
// same instant, the cutover wins and the result set is discarded.
package client

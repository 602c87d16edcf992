// Package audioformat holds the static mapping between canonical audio format
// identifiers, their ffmpeg encoder parameters, and their media types.
//
// The encoder-parameter lookup degrades gracefully (unknown formats borrow the
// mp3 parameters) while the content-type lookups are strict in both
// directions: accepting an upload and naming a response media type must never
// guess.
package audioformat

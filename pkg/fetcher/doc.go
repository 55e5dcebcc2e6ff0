// Package fetcher streams a resolved binary to disk.
//
// The server must declare both Content-Length and a Content-Disposition
// filename; a response missing either is a protocol error. The body is
// copied in fixed-size chunks, reporting progress after each one, and
// the declared length is only used for the percentage: shorter or longer
// bodies are written in full.
package fetcher

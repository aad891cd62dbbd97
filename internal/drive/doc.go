// Package drive implements the Quark Drive API client.
//
// Every operation is keyed by opaque node identifiers (fids). The client
// distinguishes transport failures (non-2xx responses) from business failures
// (logical error codes inside an HTTP 200 body); both surface as *RemoteError
// so the pipeline can isolate them per item.
package drive

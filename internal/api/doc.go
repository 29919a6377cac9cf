// Package api is the HTTP client for the musicbox backend.
//
// Every call goes through [Client.Request], which resolves the base URL per
// call, attaches a bearer token when one is supplied and normalizes failures
// into [shared.TransportError] or [shared.APIError]. Feature helpers
// ([Client.Login], [Client.ListSongs], [Client.UploadSong], ...) wrap the
// backend endpoints:
//
//	POST /auth/register   {email, password}
//	POST /auth/login      {email, password}
//	GET  /songs           [] | {items: []} | {songs: []}
//	POST /songs/upload    multipart file, title?, artist?
//	GET  /songs/{id}/stream
//	GET  /health
//
// Stream URLs are derived with [Client.StreamURL] and handed to the player
// directly; media bytes never pass through Request.
package api

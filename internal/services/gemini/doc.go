// Package gemini talks to the Google Generative Language generateContent
// endpoint. It sends the system instruction and the user payload as two text
// parts of one content entry and returns the text of the first candidate.
//
// HTTP 429, 408 and 5xx responses, network failures and non-2xx statuses wrap
// services.ErrTransport. Undecodable bodies and empty candidates wrap
// services.ErrMalformedResponse. The client never retries; retry rounds belong
// to the dispatcher.
package gemini

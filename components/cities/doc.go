// Package cities serves the quote wizard's service-city table as JSON
// options for location pickers.
//
// The handler responds to GET and HEAD requests. q matches a city name or
// ZIP case-insensitively, with prefix matches first; an empty q returns the
// table in display order. limit trims the list. zip, when present, adds a
// service area check for a typed ZIP under the "zip" key.
package cities

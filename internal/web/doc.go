// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package web exposes the clinic's authentication use cases over HTTP.
//
// Sessions live in an HttpOnly "access" cookie holding a signed token.
// JSON endpoints are mounted under /api; /dashboard is guarded and
// redirects anonymous visitors to /login.
//
// Business outcomes map onto 4xx responses whose body is {"error": CODE}.
// Infrastructure faults are logged and rendered as 500 {"error": "INTERNAL"}.
package web

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

// Package auth provides the authentication core for the clinic application.
//
// # Domain Types
//
// A User should be created with NewUser, which validates the email and
// defaults the role. Direct struct initialization bypasses validation and may
// create invalid state. Anything that leaves the process uses PublicUser.
//
// # Ports
//
// The core depends only on interfaces:
//   - UserRepository - persistence of user records
//   - PasswordHasher - one-way credential hashing (PBKDF2Hasher)
//   - TokenService - signed session tokens (JWTTokenService)
//
// # Services
//
// Service implements the use cases RegisterUser, LoginUser, ListUsers and
// GetCurrentUser. Expected business failures are returned as a Result
// carrying an ErrorCode. The error return is reserved for infrastructure
// faults such as an unavailable store.
package auth

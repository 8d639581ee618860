// Package auth issues and verifies operator tokens for the HTTP API.
//
// Tokens are HS256 JWTs signed with security.jwt.secret. There is no user
// database: a token names its subject and one of two roles, and the
// role-permission map is static.
//
//   - viewer may read process state, drive settings, run history and output
//   - operator may additionally start and terminate dataserv-client
//     processes and edit drives
package auth

// Package credentials owns password hashing, bearer token issuance and the
// three account operations exposed by the credential service: create,
// authenticate and fetch.
//
// Tokens are stateless. A token is valid while its signature verifies with
// the deployment secret and its expiration is in the future, there is no
// way to revoke one before that.
//
// Fetch does not, by default, compare the token subject with the requested
// id: any valid token reads any profile. Config.StrictSubject closes that
// hole at the cost of rejecting clients that relied on it.
package credentials

// Package jwt issues and verifies short-lived access tokens that carry
// an identity reference, with strict algorithm pinning on the parse path.
package jwt

// Package web serves the self-service dashboard API: Entra ID
// sign-in, per-owner exposure listings from the latest completed run,
// and bulk unshare with the user's delegated token.
package web

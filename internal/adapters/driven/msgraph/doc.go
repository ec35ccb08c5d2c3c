// Package msgraph talks to the Microsoft Graph API. The Client
// authenticates app-only with client credentials and handles
// pagination, throttling backoff, token refresh, and request pacing;
// Directory adapts it to the collection ports and Remover performs
// delegated permission deletion for the dashboard.
package msgraph

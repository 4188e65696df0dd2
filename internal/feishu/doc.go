// Package feishu publishes archived items to a Feishu (Lark) Bitable table.
//
// TokenCache holds the tenant access token and refreshes it once the current
// time passes expiry minus a safety margin. Client wraps the Open API calls
// curator needs (create, update and list records, upload a cover image)
// behind a golang.org/x/time/rate limiter. BuildFields maps an archive item
// and its rewritten article onto the table's columns, and Publisher ties the
// pieces together for one item directory.
package feishu

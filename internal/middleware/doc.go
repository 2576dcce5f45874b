// Package middleware 提供了 HTTP 請求處理的中間件。
//
// 這個包包含了各種中間件函數，用於在 HTTP 請求處理過程中執行額外的操作。
// 目前主要是 JWT 身份驗證，WebSocket 連線可透過 query string 帶 token。
package middleware
